package contextbuilder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/pkg/embedding"
	"chartnotes-be/pkg/rag/indexer"
	"chartnotes-be/pkg/rerank"
	"chartnotes-be/pkg/utils"
	"chartnotes-be/pkg/vectorstore"
)

// SentinelMissingSessionData is returned verbatim when a patient has no
// indexed session data. Callers pass it straight to the answer prompt.
const SentinelMissingSessionData = "There's no data from patient sessions. " +
	"They may have not gone through their first session since the practitioner added them to the platform. "

const historyDisclosurePrefix = "Here's an outline of the patient's pre-existing history:\n"

const (
	DefaultTopK       = 6
	DefaultRerankTopN = 4
)

// Options controls one assembly pass.
type Options struct {
	// TopK is the similarity search depth. Zero disables similarity
	// search entirely (override-driven assembly).
	TopK int

	// Rerank narrows the TopK candidates to RerankTopN. Requires TopK > 0.
	Rerank     bool
	RerankTopN int

	// IncludeHistory merges the patient's pre-existing history block.
	IncludeHistory bool

	Overrides []DateOverride
}

type IAssembler interface {
	Assemble(ctx context.Context, query, namespace string, opts Options) (string, error)
	SessionDates(ctx context.Context, namespace string) ([]string, error)
}

// Assembler builds the bounded context window for a query: similarity
// search, rerank, history merge and forced date inclusion.
type Assembler struct {
	store    vectorstore.Store
	embedder embedding.Provider
	reranker rerank.Provider
	logger   logger.ILogger
}

var _ IAssembler = &Assembler{}

func NewAssembler(
	store vectorstore.Store,
	embedder embedding.Provider,
	reranker rerank.Provider,
	log logger.ILogger,
) *Assembler {
	return &Assembler{
		store:    store,
		embedder: embedder,
		reranker: reranker,
		logger:   log,
	}
}

type contextDoc struct {
	sessionDate  string
	chunkSummary string
}

func (d contextDoc) render() (string, error) {
	spelled, err := utils.SpellOutDate(d.sessionDate)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("`session_date` = %s\n`chunk_summary` = %s\n", spelled, d.chunkSummary), nil
}

// Assemble builds the context string for a query. A patient with no
// indexed session data yields the sentinel (enriched with the history
// block when pre-existing history exists).
func (a *Assembler) Assemble(ctx context.Context, query, namespace string, opts Options) (string, error) {
	if opts.Rerank && opts.TopK <= 0 {
		return "", fmt.Errorf("rerank requires a positive similarity depth")
	}
	if opts.Rerank && opts.RerankTopN <= 0 {
		opts.RerankTopN = DefaultRerankTopN
	}

	sentinel := SentinelMissingSessionData

	exists, err := a.store.NamespaceExists(ctx, namespace)
	if err != nil {
		return "", fmt.Errorf("probe namespace: %w", err)
	}

	historyBlock := ""
	if opts.IncludeHistory {
		historyBlock, err = a.fetchHistoryBlock(ctx, namespace)
		if err != nil {
			return "", err
		}
		if historyBlock != "" {
			sentinel = historyBlock + "\nBeyond this pre-existing context, there's no data from actual patient sessions. " +
				"They may have not gone through their first session since the practitioner added them to the platform. "
		}
	}

	if !exists {
		return sentinel, nil
	}

	var parts []string
	var datesContained []string

	if opts.TopK > 0 {
		docs, err := a.fetchSimilar(ctx, query, namespace, opts.TopK)
		if err != nil {
			return "", err
		}
		if len(docs) == 0 {
			return sentinel, nil
		}

		kept := docs
		if opts.Rerank {
			kept, err = a.rerankDocs(ctx, query, docs, opts.RerankTopN)
			if err != nil {
				return "", err
			}
		}

		for _, doc := range kept {
			rendered, err := doc.render()
			if err != nil {
				return "", err
			}
			parts = append(parts, rendered)
			datesContained = append(datesContained, doc.sessionDate)
		}
	}

	if historyBlock != "" {
		parts = append(parts, historyBlock)
	}

	for _, override := range opts.Overrides {
		block, included, err := a.applyOverride(ctx, namespace, override, datesContained)
		if err != nil {
			return "", err
		}
		if block != "" {
			parts = append(parts, block)
		}
		datesContained = append(datesContained, included...)
	}

	if len(parts) == 0 {
		return sentinel, nil
	}
	return strings.Join(parts, "\n"), nil
}

// SessionDates lists the distinct session dates indexed for a patient,
// most recent first. Dates come from the vector id prefixes, so no
// separate bookkeeping table is needed.
func (a *Assembler) SessionDates(ctx context.Context, namespace string) ([]string, error) {
	ids, err := a.store.ListIDs(ctx, namespace, "")
	if err != nil {
		return nil, fmt.Errorf("list session vectors: %w", err)
	}

	seen := make(map[string]bool)
	var dates []string
	for _, id := range ids {
		if len(id) < len(utils.StorageDateFormat) {
			continue
		}
		date := id[:len(utils.StorageDateFormat)]
		if _, err := utils.ParseStorageDate(date); err != nil {
			continue
		}
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (a *Assembler) fetchSimilar(ctx context.Context, query, namespace string, topK int) ([]contextDoc, error) {
	vector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := a.store.Query(ctx, namespace, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	docs := make([]contextDoc, len(matches))
	for i, m := range matches {
		docs[i] = contextDoc{sessionDate: m.SessionDate, chunkSummary: m.ChunkSummary}
	}
	return docs, nil
}

func (a *Assembler) rerankDocs(ctx context.Context, query string, docs []contextDoc, topN int) ([]contextDoc, error) {
	summaries := make([]string, len(docs))
	for i, doc := range docs {
		summaries[i] = doc.chunkSummary
	}

	results, err := a.reranker.Rerank(ctx, query, summaries, topN)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	kept := make([]contextDoc, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(docs) {
			return nil, fmt.Errorf("rerank returned out-of-range index %d", r.Index)
		}
		kept = append(kept, docs[r.Index])
	}
	return kept, nil
}

func (a *Assembler) fetchHistoryBlock(ctx context.Context, namespace string) (string, error) {
	historyNS := indexer.HistoryNamespace(namespace)

	ids, err := a.store.ListIDs(ctx, historyNS, "")
	if err != nil {
		return "", fmt.Errorf("list history vectors: %w", err)
	}
	if len(ids) == 0 {
		return "", nil
	}

	records, err := a.store.Fetch(ctx, historyNS, ids)
	if err != nil {
		return "", fmt.Errorf("fetch history vectors: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(historyDisclosurePrefix)
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "`pre_existing_history_summary` = %s\n", r.ChunkSummary)
	}
	return b.String(), nil
}

// applyOverride fetches the override's days by id prefix, skipping days
// already present in the context and days without vectors. Returns the
// rendered block and the dates it actually included.
func (a *Assembler) applyOverride(ctx context.Context, namespace string, override DateOverride, datesContained []string) (string, []string, error) {
	days, err := override.dates()
	if err != nil {
		return "", nil, err
	}

	contained := make(map[string]bool, len(datesContained))
	for _, d := range datesContained {
		contained[d] = true
	}

	var body strings.Builder
	var included []string
	for _, day := range days {
		if contained[day] {
			continue
		}

		ids, err := a.store.ListIDs(ctx, namespace, day)
		if err != nil {
			return "", nil, fmt.Errorf("list override vectors: %w", err)
		}
		if len(ids) == 0 {
			a.logger.Warn("contextbuilder", "Override date has no indexed vectors", map[string]interface{}{
				"namespace":    namespace,
				"session_date": day,
			})
			continue
		}

		records, err := a.store.Fetch(ctx, namespace, ids)
		if err != nil {
			return "", nil, fmt.Errorf("fetch override vectors: %w", err)
		}

		for _, r := range records {
			rendered, err := contextDoc{sessionDate: r.SessionDate, chunkSummary: r.ChunkSummary}.render()
			if err != nil {
				return "", nil, err
			}
			body.WriteString(rendered)
		}
		included = append(included, day)
	}

	if body.Len() == 0 {
		return "", included, nil
	}

	block := body.String()
	if override.OutputPrefix != "" {
		block = override.OutputPrefix + block
	}
	if override.OutputSuffix != "" {
		block = block + override.OutputSuffix + "\n"
	}
	return block, included, nil
}
