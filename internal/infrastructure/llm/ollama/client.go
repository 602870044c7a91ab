package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/resilience"
)

const providerID = "ollama"

// Client asks a local Ollama model for structured book picks. The model is
// instructed to return a strict JSON array; anything else is a parse failure
// so the caller can degrade instead of retrying a deterministic mistake.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	runner     *resilience.Runner
}

func New(baseURL, model string, runner *resilience.Runner) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		runner:     runner,
	}
}

type pick struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genres      []string `json:"genres"`
	Rating      float64  `json:"rating"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
}

func (c *Client) Recommend(ctx context.Context, query string, library []domain.Book) ([]domain.RawCandidate, error) {
	prompt := buildRecommendPrompt(query, library, domain.RecommendationBatchSize)

	var raw string
	err := c.runner.Do(ctx, "ollama.recommend", classifyError, func(ctx context.Context) error {
		var genErr error
		raw, genErr = c.generateJSON(ctx, prompt)
		return genErr
	})
	if err != nil {
		return nil, wrapProviderFault("ollama.recommend", err)
	}

	var picks []pick
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &picks); err != nil {
		return nil, domain.WrapError(domain.ErrParseFailure, "ollama.recommend", fmt.Errorf("decode picks: %w", err))
	}
	if len(picks) != domain.RecommendationBatchSize {
		return nil, domain.WrapError(domain.ErrParseFailure, "ollama.recommend",
			fmt.Errorf("got %d records, want %d", len(picks), domain.RecommendationBatchSize))
	}

	out := make([]domain.RawCandidate, 0, len(picks))
	for _, p := range picks {
		out = append(out, domain.RawCandidate{
			SourceProviderID: providerID,
			Title:            p.Title,
			Author:           p.Author,
			Genres:           p.Genres,
			Rating:           p.Rating,
			Year:             p.Year,
			Description:      p.Description,
		})
	}
	return out, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "recommend"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
