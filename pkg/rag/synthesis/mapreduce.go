package synthesis

import (
	"context"
	"fmt"
	"strings"

	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/pkg/llm"
	"chartnotes-be/pkg/rag/prompt"
	"chartnotes-be/pkg/utils"
)

type IMapReducer interface {
	Summarize(ctx context.Context, text, languageCode string) (string, error)
}

// MapReducer condenses transcripts too long for a single completion:
// split into token-bounded chunks, summarize each chunk independently,
// then reduce the joined chunk summaries into one grand summary. The
// reduction is strictly two-level; a reduce input that still exceeds the
// budget fails the request.
type MapReducer struct {
	synth    ISynthesizer
	splitter *utils.TextSplitter
	logger   logger.ILogger
}

var _ IMapReducer = &MapReducer{}

func NewMapReducer(synth ISynthesizer, splitter *utils.TextSplitter, log logger.ILogger) *MapReducer {
	return &MapReducer{
		synth:    synth,
		splitter: splitter,
		logger:   log,
	}
}

func (m *MapReducer) Summarize(ctx context.Context, text, languageCode string) (string, error) {
	chunks := m.splitter.Split(text)
	if len(chunks) == 0 {
		return "", fmt.Errorf("nothing to summarize")
	}

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		system, user, err := prompt.Build(prompt.VariantTranscriptChunkSummary, prompt.Params{
			Text:         chunk,
			LanguageCode: languageCode,
		})
		if err != nil {
			return "", err
		}

		summary, err := m.synth.Complete(ctx, "map_reduce_chunk_summary", system, user, llm.WithTemperature(0.2))
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if strings.TrimSpace(summary) == "" {
			return "", fmt.Errorf("empty summary for chunk %d/%d", i+1, len(chunks))
		}
		summaries = append(summaries, summary)
	}

	m.logger.Info("synthesis", "Reducing chunk summaries", map[string]interface{}{
		"chunks": len(chunks),
	})

	system, user, err := prompt.Build(prompt.VariantTranscriptGrandSummary, prompt.Params{
		Text:         strings.Join(summaries, " "),
		LanguageCode: languageCode,
	})
	if err != nil {
		return "", err
	}

	grand, err := m.synth.Complete(ctx, "map_reduce_grand_summary", system, user, llm.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("grand summary: %w", err)
	}
	if strings.TrimSpace(grand) == "" {
		return "", fmt.Errorf("grand summary came back empty")
	}
	return grand, nil
}
