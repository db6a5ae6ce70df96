package message

import "encoding/json"

// Artifact is a structured side-output attached to a FinalAnswer (e.g. a
// generated file reference, a UI component payload).
type Artifact struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// FinalAnswer is the terminal payload produced by a planner run or a
// graph's egress node. RawAnswer carries structured content when the
// producer did not emit plain text; Text is the preferred key for callers,
// but legacy keys (answer, text, result) are tolerated on decode per §4.13.
type FinalAnswer struct {
	Text       string     `json:"raw_answer"`
	RawAnswer  any        `json:"raw_answer_struct,omitempty"`
	Citations  []string   `json:"sources,omitempty"`
	Artifacts  []Artifact `json:"artifacts,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`
}

// legacyFinalAnswer captures the tolerated legacy key spellings.
type legacyFinalAnswer struct {
	RawAnswer  *string    `json:"raw_answer,omitempty"`
	Answer     *string    `json:"answer,omitempty"`
	Text       *string    `json:"text,omitempty"`
	Result     *string    `json:"result,omitempty"`
	Citations  []string   `json:"sources,omitempty"`
	Artifacts  []Artifact `json:"artifacts,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`
}

// UnmarshalJSON accepts the preferred raw_answer key as well as the legacy
// answer/text/result spellings, preferring raw_answer when more than one is
// present.
func (f *FinalAnswer) UnmarshalJSON(data []byte) error {
	var legacy legacyFinalAnswer
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	switch {
	case legacy.RawAnswer != nil:
		f.Text = *legacy.RawAnswer
	case legacy.Answer != nil:
		f.Text = *legacy.Answer
	case legacy.Text != nil:
		f.Text = *legacy.Text
	case legacy.Result != nil:
		f.Text = *legacy.Result
	}
	f.Citations = legacy.Citations
	f.Artifacts = legacy.Artifacts
	f.Confidence = legacy.Confidence
	return nil
}
