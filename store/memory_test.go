package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurtener/penguiflow-go/emit"
)

func TestMemStoreSaveLoadDeletePause(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	record := PauseRecord{Token: "tok-1", Reason: "needs_approval", CreatedAt: time.Now()}
	require.NoError(t, s.SavePause(ctx, "tok-1", record, 0))

	got, err := s.LoadPause(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "needs_approval", got.Reason)

	require.NoError(t, s.DeletePause(ctx, "tok-1"))
	_, err = s.LoadPause(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreLoadUnknownTokenReturnsNotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.LoadPause(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreExpiresPauseAfterTTL(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.SavePause(ctx, "tok-1", PauseRecord{Token: "tok-1"}, time.Millisecond))

	time.Sleep(5 * time.Millisecond)
	_, err := s.LoadPause(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreDeletePauseIsIdempotent(t *testing.T) {
	s := NewMemStore()
	assert.NoError(t, s.DeletePause(context.Background(), "ghost"))
}

func TestMemStoreAppendAndListEventsPreservesOrder(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.AppendEvent(ctx, "t1", emit.Event{Type: emit.EventNodeStart}))
	require.NoError(t, s.AppendEvent(ctx, "t1", emit.Event{Type: emit.EventNodeSuccess}))

	events, err := s.ListEvents(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, emit.EventNodeStart, events[0].Type)
	assert.Equal(t, emit.EventNodeSuccess, events[1].Type)
}

func TestMemStoreListEventsUnknownTraceReturnsEmpty(t *testing.T) {
	s := NewMemStore()
	events, err := s.ListEvents(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, events)
}
