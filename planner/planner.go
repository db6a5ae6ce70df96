// Package planner implements the ReAct-style controller described in
// spec §§4.8-4.13: a typed tool catalog built from a node/registry
// pairing, a structured LLM action schema, a compressible trajectory,
// budget enforcement, parallel fan-out with join, and durable
// pause/resume.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hurtener/penguiflow-go/emit"
	"github.com/hurtener/penguiflow-go/llm"
	"github.com/hurtener/penguiflow-go/logging"
	"github.com/hurtener/penguiflow-go/message"
	"github.com/hurtener/penguiflow-go/metrics"
	"github.com/hurtener/penguiflow-go/store"
)

// Planner runs one ReAct loop against a Catalog, using an llm.Client for
// action proposals and a store.Store for pause/resume durability.
type Planner struct {
	client    llm.Client
	catalog   *Catalog
	store     store.Store
	estimator TokenEstimator

	summarizer          Summarizer
	emitter             emit.Emitter
	metrics             *metrics.Collector
	logger              *logging.Logger
	hints               Hints
	budget              Budget
	pauseTTL            time.Duration
	systemPrompt        string
	streamFinalResponse bool
	maxRevisions        int
	temperature         float64
	maxTokens           int
}

// Option configures a Planner at construction time, the same functional-
// options shape flow.Option uses.
type Option func(*Planner)

func WithSummarizer(s Summarizer) Option        { return func(p *Planner) { p.summarizer = s } }
func WithEmitter(e emit.Emitter) Option          { return func(p *Planner) { p.emitter = e } }
func WithMetrics(m *metrics.Collector) Option    { return func(p *Planner) { p.metrics = m } }
func WithLogger(l *logging.Logger) Option        { return func(p *Planner) { p.logger = l } }
func WithHints(h Hints) Option                   { return func(p *Planner) { p.hints = h } }
func WithPauseTTL(d time.Duration) Option        { return func(p *Planner) { p.pauseTTL = d } }
func WithSystemPrompt(prompt string) Option      { return func(p *Planner) { p.systemPrompt = prompt } }
func WithStreamFinalResponse(stream bool) Option { return func(p *Planner) { p.streamFinalResponse = stream } }
func WithMaxRevisions(n int) Option               { return func(p *Planner) { p.maxRevisions = n } }
func WithTemperature(t float64) Option             { return func(p *Planner) { p.temperature = t } }
func WithMaxTokens(n int) Option                   { return func(p *Planner) { p.maxTokens = n } }

// New builds a Planner. estimator defaults to CharEstimator when nil.
func New(client llm.Client, catalog *Catalog, st store.Store, budget Budget, estimator TokenEstimator, opts ...Option) *Planner {
	if estimator == nil {
		estimator = CharEstimator{}
	}
	p := &Planner{
		client:       client,
		catalog:      catalog,
		store:        st,
		estimator:    estimator,
		budget:       budget,
		pauseTTL:     24 * time.Hour,
		maxRevisions: 1,
		emitter:      emit.NewNullEmitter(),
		metrics:      metrics.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts a new planner run for query and drives it to completion,
// pause, or budget exhaustion.
func (p *Planner) Run(ctx context.Context, traceID string, headers message.Headers, query string) (Result, error) {
	messages := []llm.Message{{Role: llm.RoleUser, Content: query}}
	if p.systemPrompt != "" {
		messages = append([]llm.Message{{Role: llm.RoleSystem, Content: p.systemPrompt}}, messages...)
	}
	return p.loop(ctx, traceID, headers, messages, NewTrajectory(), 0)
}

// Resume restores a paused run from its token and feeds userInput as the
// observation of the step that paused it, then continues (spec §4.12). A
// repeated Resume with the same (token, userInput) returns the original
// outcome without re-executing, via a cached result recorded as an event
// under the store key "resume:" + token.
func (p *Planner) Resume(ctx context.Context, traceID, token string, headers message.Headers, userInput any) (Result, error) {
	idemKey := resumeIdempotencyKey(token, userInput)
	if cached, ok := p.lookupCachedResume(ctx, token, idemKey); ok {
		return cached, nil
	}

	record, traj, pending, llmContext, err := loadPause(ctx, p.store, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, fmt.Errorf("%w", ErrPauseNotFound)
		}
		return Result{}, err
	}

	observation, err := json.Marshal(userInput)
	if err != nil {
		return Result{}, fmt.Errorf("planner: marshal resume input: %w", err)
	}
	traj.Append(Step{
		Thought:     fmt.Sprintf("resumed: %s", record.Reason),
		NextNode:    pending.NextNode,
		Args:        pending.Args,
		Observation: observation,
	})

	messages := append(llmContext, llm.Message{Role: llm.RoleUser, Content: string(observation)})

	result, err := p.loop(ctx, traceID, headers, messages, traj, len(traj.Steps))
	if err != nil {
		return result, err
	}

	_ = p.store.DeletePause(ctx, token)
	p.cacheResumeResult(ctx, token, idemKey, result)
	return result, nil
}

func (p *Planner) lookupCachedResume(ctx context.Context, token, idemKey string) (Result, bool) {
	events, err := p.store.ListEvents(ctx, "resume:"+token)
	if err != nil {
		return Result{}, false
	}
	for _, ev := range events {
		if ev.Extra == nil {
			continue
		}
		if key, _ := ev.Extra["idempotency_key"].(string); key == idemKey {
			raw, _ := ev.Extra["result"].(string)
			var cached Result
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, true
			}
		}
	}
	return Result{}, false
}

func (p *Planner) cacheResumeResult(ctx context.Context, token, idemKey string, result Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = p.store.AppendEvent(ctx, "resume:"+token, emit.Event{
		Type:      emit.EventKind("resume_cached"),
		TraceID:   token,
		Timestamp: time.Now(),
		Extra: map[string]any{
			"idempotency_key": idemKey,
			"result":          string(data),
		},
	})
}

// loop is the shared ReAct iteration used by both Run and Resume.
func (p *Planner) loop(ctx context.Context, traceID string, headers message.Headers, messages []llm.Message, traj *Trajectory, hops int) (Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if p.budget.TokenBudget > 0 && p.summarizer != nil {
			if p.estimator.EstimateTokens(trajectoryText(traj))+p.estimatedCallTokens(messages) > p.budget.TokenBudget {
				if err := compress(ctx, traj, p.summarizer); err != nil {
					p.logWarn("trajectory compression failed", traceID, err)
				}
			}
		}

		currentText := trajectoryText(traj)
		if ok, reason := checkBudget(p.budget, hops, p.estimator, currentText, p.estimatedCallTokens(messages)); !ok {
			return Result{Finish: &FinishResult{
				Reason:   FinishBudgetExhausted,
				Metadata: map[string]any{"which": string(reason)},
			}, TraceID: traceID}, nil
		}

		action, err := p.proposeAction(ctx, headers, messages)
		if err != nil {
			return Result{}, err
		}

		switch action.Kind {
		case ActionFinish:
			step := traj.Append(Step{Thought: action.Thought})
			return Result{
				Finish:          &FinishResult{Reason: FinishAnswerComplete, Payload: action.Final},
				TraceID:         traceID,
				AnswerActionSeq: step.ActionSeq,
			}, nil

		case ActionSequential:
			if _, ok := p.catalog.Lookup(action.NextNode); !ok {
				messages = append(messages, reviseMessage(fmt.Sprintf("unknown node %q; choose one from the provided tool list", action.NextNode)))
				continue
			}

			output, err := invokeTool(ctx, p.catalog, traceID, headers, action.NextNode, action.Args)
			var pause *pauseSignal
			if errors.As(err, &pause) {
				return p.suspend(ctx, traceID, pause, traj, pendingStep{NextNode: action.NextNode, Args: action.Args}, messages)
			}

			obsJSON, errored := marshalObservation(output, err)
			traj.Append(Step{
				Thought:     action.Thought,
				NextNode:    action.NextNode,
				Args:        action.Args,
				Observation: obsJSON,
				Errored:     errored,
			})
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: string(obsJSON)})
			hops++

		case ActionParallel:
			if err := validatePlan(action.Plan, p.hints); err != nil {
				messages = append(messages, reviseMessage(err.Error()))
				continue
			}

			obs, err := executeParallel(ctx, p.catalog, traceID, headers, action.Plan, action.Join)
			var pause *pauseSignal
			if errors.As(err, &pause) {
				return p.suspend(ctx, traceID, pause, traj, pendingStep{}, messages)
			}

			obsJSON, _ := json.Marshal(obs)
			traj.Append(Step{
				Thought:     action.Thought,
				Plan:        action.Plan,
				Join:        action.Join,
				Observation: obsJSON,
				Errored:     obs.Stats.Failed > 0,
			})
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: string(obsJSON)})
			hops++
		}
	}
}

func (p *Planner) proposeAction(ctx context.Context, headers message.Headers, messages []llm.Message) (Action, error) {
	tools := make([]llm.Tool, 0)
	for _, entry := range p.catalog.Visible(headers) {
		var schema map[string]any
		_ = json.Unmarshal(entry.InputSchema, &schema)
		tools = append(tools, llm.Tool{Name: entry.Name, Description: entry.Description, Schema: schema})
	}

	result, err := p.client.Call(ctx, messages, llm.CallOptions{
		Tools:       tools,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return Action{}, fmt.Errorf("planner: llm call: %w", err)
	}

	action, err := ParseAction(result.Content)
	if err == nil {
		return action, nil
	}

	for attempt := 0; attempt < p.maxRevisions; attempt++ {
		retryMessages := append(messages, llm.Message{Role: llm.RoleAssistant, Content: result.Content},
			llm.Message{Role: llm.RoleUser, Content: "Your previous response was not valid JSON matching the required action schema. Reply with ONLY the corrected JSON object, no prose."})
		result, err = p.client.Call(ctx, retryMessages, llm.CallOptions{Tools: tools, Temperature: p.temperature, MaxTokens: p.maxTokens})
		if err != nil {
			return Action{}, fmt.Errorf("planner: llm call (revision): %w", err)
		}
		action, err = ParseAction(result.Content)
		if err == nil {
			return action, nil
		}
	}

	return Action{}, fmt.Errorf("planner: action unparseable after %d revisions: %w", p.maxRevisions, err)
}

func (p *Planner) suspend(ctx context.Context, traceID string, pause *pauseSignal, traj *Trajectory, pending pendingStep, messages []llm.Message) (Result, error) {
	token, err := savePause(ctx, p.store, p.pauseTTL, pause.Reason, pause.Payload, traj, pending, messages)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Pause: &PauseResult{PauseToken: token, Reason: pause.Reason, Payload: pause.Payload},
		TraceID: traceID,
	}, nil
}

func (p *Planner) estimatedCallTokens(messages []llm.Message) int {
	total := 0
	for _, m := range messages {
		total += p.estimator.EstimateTokens(m.Content)
	}
	return total
}

func (p *Planner) logWarn(msg, traceID string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(msg, map[string]any{"trace_id": traceID, "error": err.Error()})
}

func reviseMessage(detail string) llm.Message {
	return llm.Message{Role: llm.RoleUser, Content: "Your proposed action was rejected: " + detail + ". Propose a corrected action."}
}

func marshalObservation(output any, err error) (json.RawMessage, bool) {
	if err != nil {
		data, _ := json.Marshal(map[string]any{"error": err.Error()})
		return data, true
	}
	data, marshalErr := json.Marshal(output)
	if marshalErr != nil {
		data, _ = json.Marshal(map[string]any{"error": marshalErr.Error()})
		return data, true
	}
	return data, false
}
