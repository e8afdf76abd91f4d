package state_test

import (
	"context"
	"testing"
	"time"

	"chartnotes-be/internal/repository/memory"
	"chartnotes-be/pkg/rag/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *state.Manager {
	return state.NewManager(memory.NewSessionRepository(time.Hour))
}

func TestHistoryStartsEmpty(t *testing.T) {
	m := newManager()
	history, err := m.History(context.Background(), "t1", "p1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppendBuildsAlternatingHistory(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	require.NoError(t, m.Append(ctx, "t1", "p1", "How did the last session go?", "It covered sleep habits."))
	require.NoError(t, m.Append(ctx, "t1", "p1", "Any homework assigned?", "Daily journaling."))

	history, err := m.History(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "Any homework assigned?", history[2].Content)
}

func TestPatientSwitchDiscardsHistory(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	require.NoError(t, m.Append(ctx, "t1", "p1", "question about p1", "answer about p1"))

	// Asking about a different patient starts fresh.
	history, err := m.History(ctx, "t1", "p2")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, m.Append(ctx, "t1", "p2", "question about p2", "answer about p2"))

	// The old patient's history is gone even when switching back.
	history, err = m.History(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTherapistsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	require.NoError(t, m.Append(ctx, "t1", "p1", "q", "a"))

	history, err := m.History(ctx, "t2", "p1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestResetKeepsPatientScope(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	require.NoError(t, m.Append(ctx, "t1", "p1", "q", "a"))
	require.NoError(t, m.Reset(ctx, "t1"))

	history, err := m.History(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Empty(t, history)

	// The conversation is still bound to p1: appending continues it.
	require.NoError(t, m.Append(ctx, "t1", "p1", "q2", "a2"))
	history, err = m.History(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestResetIfActiveOnlyTouchesTheActivePatient(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	require.NoError(t, m.Append(ctx, "t1", "p1", "q", "a"))

	// A data change for another patient leaves the conversation intact.
	require.NoError(t, m.ResetIfActive(ctx, "t1", "p2"))
	history, err := m.History(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// A data change for the active patient drops the history but keeps
	// the binding.
	require.NoError(t, m.ResetIfActive(ctx, "t1", "p1"))
	history, err = m.History(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestResetOnUnknownTherapistIsNoError(t *testing.T) {
	assert.NoError(t, newManager().Reset(context.Background(), "nobody"))
}

func TestHistoryIsCapped(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	for i := 0; i < state.MaxHistoryMessages; i++ {
		require.NoError(t, m.Append(ctx, "t1", "p1", "question", "answer"))
	}

	history, err := m.History(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Len(t, history, state.MaxHistoryMessages)
}
