package indexer

import (
	"context"
	"errors"
	"fmt"

	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/pkg/embedding"
	"chartnotes-be/pkg/llm"
	"chartnotes-be/pkg/rag/prompt"
	"chartnotes-be/pkg/utils"
	"chartnotes-be/pkg/vectorstore"

	"github.com/google/uuid"
)

// HistoryNamespaceSuffix marks the sub-namespace holding a patient's
// pre-existing history, indexed separately from dated session notes.
const HistoryNamespaceSuffix = "-pre-existing-history"

// HistoryNamespace derives the history sub-namespace for a patient namespace.
func HistoryNamespace(namespace string) string {
	return namespace + HistoryNamespaceSuffix
}

type IIndexer interface {
	Index(ctx context.Context, namespace, sessionDate, text string) (int, error)
	Reindex(ctx context.Context, namespace, sessionDate, text string) (int, error)
	DeleteByDate(ctx context.Context, namespace, sessionDate string) error
	DeleteNamespace(ctx context.Context, namespace string) error
	IndexHistory(ctx context.Context, namespace, text string) (int, error)
	ReindexHistory(ctx context.Context, namespace, text string) (int, error)
	DeleteHistory(ctx context.Context, namespace string) error
}

// Indexer chunks session text, summarizes each chunk, embeds the summary
// and upserts the result into the vector store.
type Indexer struct {
	store    vectorstore.Store
	embedder embedding.Provider
	llm      llm.LLMProvider
	splitter *utils.TextSplitter
	logger   logger.ILogger
}

var _ IIndexer = &Indexer{}

func NewIndexer(
	store vectorstore.Store,
	embedder embedding.Provider,
	llmProvider llm.LLMProvider,
	splitter *utils.TextSplitter,
	log logger.ILogger,
) *Indexer {
	return &Indexer{
		store:    store,
		embedder: embedder,
		llm:      llmProvider,
		splitter: splitter,
		logger:   log,
	}
}

// Index stores one calendar day's session text under the namespace.
// Returns the number of chunks written. Any upstream failure aborts the
// call; already-written chunks are left behind for the retrying job to
// overwrite.
func (ix *Indexer) Index(ctx context.Context, namespace, sessionDate, text string) (int, error) {
	if _, err := utils.ParseStorageDate(sessionDate); err != nil {
		return 0, err
	}

	cleaned := utils.CleanText(text)
	chunks := ix.splitter.Split(cleaned)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no indexable content for session %s", sessionDate)
	}

	records := make([]vectorstore.Record, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := ix.summarizeChunk(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("summarize chunk %d: %w", i, err)
		}

		vector, err := ix.embedder.Embed(ctx, summary)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}

		records = append(records, vectorstore.Record{
			VectorID:     fmt.Sprintf("%s-%d-%s", sessionDate, i, uuid.New()),
			Namespace:    namespace,
			SessionDate:  sessionDate,
			ChunkSummary: summary,
			ChunkText:    chunk,
			Embedding:    vector,
		})
	}

	if err := ix.store.UpsertBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert session chunks: %w", err)
	}

	ix.logger.Info("indexer", "Indexed session text", map[string]interface{}{
		"namespace":    namespace,
		"session_date": sessionDate,
		"chunks":       len(records),
	})
	return len(records), nil
}

// Reindex deletes the day's existing chunks and indexes the new text.
// The two steps are not atomic; a query in between sees the day empty.
func (ix *Indexer) Reindex(ctx context.Context, namespace, sessionDate, text string) (int, error) {
	if err := ix.DeleteByDate(ctx, namespace, sessionDate); err != nil {
		return 0, err
	}
	return ix.Index(ctx, namespace, sessionDate, text)
}

// DeleteByDate removes every chunk whose id carries the given date prefix.
func (ix *Indexer) DeleteByDate(ctx context.Context, namespace, sessionDate string) error {
	if _, err := utils.ParseStorageDate(sessionDate); err != nil {
		return err
	}

	ids, err := ix.store.ListIDs(ctx, namespace, sessionDate)
	if err != nil {
		return fmt.Errorf("list session chunks: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := ix.store.DeleteIDs(ctx, namespace, ids); err != nil {
		return fmt.Errorf("delete session chunks: %w", err)
	}

	ix.logger.Info("indexer", "Deleted session chunks", map[string]interface{}{
		"namespace":    namespace,
		"session_date": sessionDate,
		"chunks":       len(ids),
	})
	return nil
}

// DeleteNamespace removes a patient's session chunks and their history.
// A patient that was never indexed reports vectorstore.ErrNamespaceNotFound.
func (ix *Indexer) DeleteNamespace(ctx context.Context, namespace string) error {
	exists, err := ix.store.NamespaceExists(ctx, namespace)
	if err != nil {
		return fmt.Errorf("probe namespace: %w", err)
	}
	historyExists, err := ix.store.NamespaceExists(ctx, HistoryNamespace(namespace))
	if err != nil {
		return fmt.Errorf("probe history namespace: %w", err)
	}
	if !exists && !historyExists {
		return fmt.Errorf("%s: %w", namespace, vectorstore.ErrNamespaceNotFound)
	}

	if err := ix.store.DeleteNamespace(ctx, namespace); err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	if err := ix.store.DeleteNamespace(ctx, HistoryNamespace(namespace)); err != nil {
		return fmt.Errorf("delete history namespace: %w", err)
	}
	return nil
}

// IndexHistory stores pre-existing history under the history sub-namespace,
// dated with the day it was captured.
func (ix *Indexer) IndexHistory(ctx context.Context, namespace, text string) (int, error) {
	return ix.Index(ctx, HistoryNamespace(namespace), utils.Today(), text)
}

func (ix *Indexer) ReindexHistory(ctx context.Context, namespace, text string) (int, error) {
	// First-time reindex has no history yet; that is not an error here.
	if err := ix.DeleteHistory(ctx, namespace); err != nil && !errors.Is(err, vectorstore.ErrNamespaceNotFound) {
		return 0, err
	}
	return ix.IndexHistory(ctx, namespace, text)
}

// DeleteHistory removes the history sub-namespace. A patient with no
// indexed history reports vectorstore.ErrNamespaceNotFound.
func (ix *Indexer) DeleteHistory(ctx context.Context, namespace string) error {
	exists, err := ix.store.NamespaceExists(ctx, HistoryNamespace(namespace))
	if err != nil {
		return fmt.Errorf("probe history namespace: %w", err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", namespace, vectorstore.ErrNamespaceNotFound)
	}
	if err := ix.store.DeleteNamespace(ctx, HistoryNamespace(namespace)); err != nil {
		return fmt.Errorf("delete history namespace: %w", err)
	}
	return nil
}

func (ix *Indexer) summarizeChunk(ctx context.Context, chunk string) (string, error) {
	system, user, err := prompt.Build(prompt.VariantChunkSummary, prompt.Params{Text: chunk})
	if err != nil {
		return "", err
	}
	summary, err := ix.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, llm.WithTemperature(0.2))
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", fmt.Errorf("empty chunk summary")
	}
	return summary, nil
}
