package flow

import (
	"sync"

	"github.com/hurtener/penguiflow-go/emit"
)

// streamState tracks the last accepted seq and terminal status for a single
// (trace_id, stream_id) pair, enforcing spec §4.5's ordering contract:
// seq starting at 0 and increasing by exactly one per chunk (a gap is
// rejected), with done=true terminal and any later chunk discarded.
type streamState struct {
	lastSeq    int
	started    bool
	terminated bool
}

// StreamGuard enforces the ordered-chunk contract across every
// (trace_id, stream_id) pair a graph instance serves, rejecting
// out-of-order or post-terminal chunk emissions before they reach the
// event pipeline.
type StreamGuard struct {
	mu     sync.Mutex
	states map[string]*streamState
}

// NewStreamGuard constructs an empty StreamGuard.
func NewStreamGuard() *StreamGuard {
	return &StreamGuard{states: make(map[string]*streamState)}
}

// Accept validates chunk's seq against the (traceID, streamID) pair's prior
// state. It returns ErrStreamAlreadyDone if the stream already received a
// terminal chunk, or ErrSeqNotMonotonic if seq is not the previous seq
// plus one (or, for the first chunk, is not 0). On success it records the
// new state.
func (g *StreamGuard) Accept(traceID, streamID string, seq int, done bool) error {
	key := traceID + "\x00" + streamID

	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.states[key]
	if !ok {
		st = &streamState{lastSeq: -1}
		g.states[key] = st
	}
	if st.terminated {
		return ErrStreamAlreadyDone
	}
	if !st.started {
		if seq != 0 {
			return ErrSeqNotMonotonic
		}
		st.started = true
	} else if seq != st.lastSeq+1 {
		return ErrSeqNotMonotonic
	}

	st.lastSeq = seq
	if done {
		st.terminated = true
	}
	return nil
}

// Forget discards state for traceID's streams once the trace completes.
func (g *StreamGuard) Forget(traceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	prefix := traceID + "\x00"
	for key := range g.states {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(g.states, key)
		}
	}
}

// chunkEvent builds the emit.Event for a chunk, the typed mirror of spec
// §6's "chunk event" JSON shape.
func chunkEvent(traceID, nodeName, streamID string, seq int, text string, done bool, artifactType string, chunk any) emit.Event {
	return emit.Event{
		Type:     emit.EventChunk,
		TraceID:  traceID,
		NodeName: nodeName,
		Chunk: &emit.ChunkPayload{
			StreamID:     streamID,
			Seq:          seq,
			Text:         text,
			Done:         done,
			ArtifactType: artifactType,
			Chunk:        chunk,
		},
	}
}
