package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/pkg/llm"
	"chartnotes-be/pkg/utils"
	"chartnotes-be/pkg/vectorstore"
	"chartnotes-be/pkg/vectorstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls int
	fail  bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedding backend down")
	}
	return []float32{float32(len(text)), 1}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }

type fakeLLM struct {
	calls int
	fail  bool
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("llm backend down")
	}
	return fmt.Sprintf("summary %d", f.calls), nil
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan string, <-chan error) {
	textCh := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(textCh)
		defer close(errCh)
		out, err := f.Chat(ctx, history, opts...)
		if err != nil {
			errCh <- err
			return
		}
		textCh <- out
	}()
	return textCh, errCh
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func newTestIndexer(store vectorstore.Store) *Indexer {
	splitter := utils.NewTextSplitter(10, 2, func(text string) int {
		return len(strings.Fields(text))
	})
	return NewIndexer(store, &fakeEmbedder{}, &fakeLLM{}, splitter, logger.NewNopLogger())
}

const sessionText = "Patient discussed persistent work stress and poor sleep.\n\n" +
	"Reviewed breathing exercises from last week and agreed on a daily journaling habit.\n\n" +
	"Patient reported a difficult conversation with their sibling about family finances."

func TestIndexWritesDatePrefixedChunks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ix := newTestIndexer(store)

	count, err := ix.Index(ctx, "t1-p1", "2025-03-04", sessionText)
	require.NoError(t, err)
	require.Greater(t, count, 1)

	ids, err := store.ListIDs(ctx, "t1-p1", "2025-03-04")
	require.NoError(t, err)
	require.Len(t, ids, count)
	for i, id := range ids {
		assert.True(t, strings.HasPrefix(id, fmt.Sprintf("2025-03-04-%d-", i)), "id %q", id)
	}

	records, err := store.Fetch(ctx, "t1-p1", ids)
	require.NoError(t, err)
	for _, r := range records {
		assert.Equal(t, "2025-03-04", r.SessionDate)
		assert.NotEmpty(t, r.ChunkSummary)
		assert.NotEmpty(t, r.ChunkText)
		assert.NotEmpty(t, r.Embedding)
	}
}

func TestIndexRejectsInvalidDate(t *testing.T) {
	ix := newTestIndexer(memory.NewStore())
	_, err := ix.Index(context.Background(), "ns", "03/04/2025", sessionText)
	assert.Error(t, err)
}

func TestIndexPropagatesSummaryFailure(t *testing.T) {
	store := memory.NewStore()
	splitter := utils.NewTextSplitter(10, 2, func(text string) int { return len(strings.Fields(text)) })
	ix := NewIndexer(store, &fakeEmbedder{}, &fakeLLM{fail: true}, splitter, logger.NewNopLogger())

	_, err := ix.Index(context.Background(), "ns", "2025-03-04", sessionText)
	assert.Error(t, err)

	exists, err2 := store.NamespaceExists(context.Background(), "ns")
	require.NoError(t, err2)
	assert.False(t, exists, "nothing should be written when summarization fails up front")
}

func TestReindexReplacesDay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ix := newTestIndexer(store)

	_, err := ix.Index(ctx, "ns", "2025-03-04", sessionText)
	require.NoError(t, err)
	before, err := store.ListIDs(ctx, "ns", "2025-03-04")
	require.NoError(t, err)

	count, err := ix.Reindex(ctx, "ns", "2025-03-04", "A much shorter corrected note.")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	after, err := store.ListIDs(ctx, "ns", "2025-03-04")
	require.NoError(t, err)
	require.Len(t, after, 1)
	for _, old := range before {
		assert.NotContains(t, after, old)
	}
}

func TestReindexLeavesOtherDatesUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ix := newTestIndexer(store)

	_, err := ix.Index(ctx, "ns", "2025-03-04", sessionText)
	require.NoError(t, err)
	_, err = ix.Index(ctx, "ns", "2025-03-11", sessionText)
	require.NoError(t, err)

	_, err = ix.Reindex(ctx, "ns", "2025-03-04", "Corrected note.")
	require.NoError(t, err)

	other, err := store.ListIDs(ctx, "ns", "2025-03-11")
	require.NoError(t, err)
	assert.NotEmpty(t, other)
}

func TestDeleteByDateOnEmptyDayIsNoError(t *testing.T) {
	ix := newTestIndexer(memory.NewStore())
	assert.NoError(t, ix.DeleteByDate(context.Background(), "ns", "2025-03-04"))
}

func TestHistoryLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ix := newTestIndexer(store)

	_, err := ix.IndexHistory(ctx, "t1-p1", "Patient previously treated for panic attacks in 2019.")
	require.NoError(t, err)

	exists, err := store.NamespaceExists(ctx, "t1-p1-pre-existing-history")
	require.NoError(t, err)
	assert.True(t, exists)

	// The main namespace stays untouched.
	exists, err = store.NamespaceExists(ctx, "t1-p1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, ix.DeleteHistory(ctx, "t1-p1"))
	exists, err = store.NamespaceExists(ctx, "t1-p1-pre-existing-history")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteNamespaceUnknownPatient(t *testing.T) {
	ix := newTestIndexer(memory.NewStore())
	err := ix.DeleteNamespace(context.Background(), "nobody")
	assert.ErrorIs(t, err, vectorstore.ErrNamespaceNotFound)
}

func TestDeleteHistoryWithoutIndexedHistory(t *testing.T) {
	ix := newTestIndexer(memory.NewStore())
	err := ix.DeleteHistory(context.Background(), "t1-p1")
	assert.ErrorIs(t, err, vectorstore.ErrNamespaceNotFound)
}

func TestReindexHistoryOnFreshNamespace(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ix := newTestIndexer(store)

	count, err := ix.ReindexHistory(ctx, "t1-p1", "Patient previously treated for panic attacks.")
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	exists, err := store.NamespaceExists(ctx, "t1-p1-pre-existing-history")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteNamespaceRemovesHistoryToo(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ix := newTestIndexer(store)

	_, err := ix.Index(ctx, "t1-p1", "2025-03-04", sessionText)
	require.NoError(t, err)
	_, err = ix.IndexHistory(ctx, "t1-p1", "Prior history outline.")
	require.NoError(t, err)

	require.NoError(t, ix.DeleteNamespace(ctx, "t1-p1"))

	for _, ns := range []string{"t1-p1", "t1-p1-pre-existing-history"} {
		exists, err := store.NamespaceExists(ctx, ns)
		require.NoError(t, err)
		assert.False(t, exists, ns)
	}
}
