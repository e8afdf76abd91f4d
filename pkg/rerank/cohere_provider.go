package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultCohereBaseURL = "https://api.cohere.com/v2"
	defaultCohereModel   = "rerank-multilingual-v3.0"
)

// CohereProvider calls the Cohere rerank endpoint.
type CohereProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

var _ Provider = &CohereProvider{}

func NewCohereProvider(baseURL, apiKey, model string) *CohereProvider {
	if baseURL == "" {
		baseURL = defaultCohereBaseURL
	}
	if model == "" {
		model = defaultCohereModel
	}
	return &CohereProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type cohereRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type cohereRerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (p *CohereProvider) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	payload, err := json.Marshal(cohereRerankRequest{
		Model:     p.Model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.BaseURL + "/rerank"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cohere rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere rerank error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var rerankResp cohereRerankResponse
	if err := json.Unmarshal(bodyBytes, &rerankResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	results := make([]Result, len(rerankResp.Results))
	for i, r := range rerankResp.Results {
		results[i] = Result{Index: r.Index, RelevanceScore: r.RelevanceScore}
	}
	return results, nil
}
