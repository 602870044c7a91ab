package bestseller

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/providers/httpapi"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/resilience"
)

const (
	providerID     = "bestseller"
	overviewList   = "combined-fiction"
	requestTimeout = 15 * time.Second
)

// Client reads a curated bestseller feed service. An empty category maps to
// the mixed overview list.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	runner     *resilience.Runner
	limiter    *rate.Limiter
}

func New(baseURL, apiKey string, runner *resilience.Runner) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		runner:     runner,
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
	}
}

type listResponse struct {
	Results struct {
		ListName string `json:"list_name"`
		Books    []struct {
			Title         string `json:"title"`
			Author        string `json:"author"`
			Description   string `json:"description"`
			BookImage     string `json:"book_image"`
			PrimaryISBN13 string `json:"primary_isbn13"`
		} `json:"books"`
	} `json:"results"`
}

func (c *Client) ListByCategory(ctx context.Context, category string) ([]domain.RawCandidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var response listResponse
	err := c.runner.Do(ctx, "bestseller.list", httpapi.Classify, func(ctx context.Context) error {
		return httpapi.GetJSON(ctx, c.httpClient, c.listURL(category), &response, providerID, "list")
	})
	if err != nil {
		return nil, httpapi.WrapFault("bestseller.list", err)
	}

	var genres []string
	if category != "" {
		genres = []string{category}
	}

	out := make([]domain.RawCandidate, 0, len(response.Results.Books))
	for _, book := range response.Results.Books {
		out = append(out, domain.RawCandidate{
			SourceProviderID: providerID,
			Title:            book.Title,
			Author:           book.Author,
			Genres:           genres,
			Description:      book.Description,
			CoverURL:         book.BookImage,
			ISBN:             book.PrimaryISBN13,
		})
	}
	return out, nil
}

func (c *Client) listURL(category string) string {
	list := listSlug(category)
	params := url.Values{}
	if c.apiKey != "" {
		params.Set("api-key", c.apiKey)
	}
	u := fmt.Sprintf("%s/lists/current/%s.json", c.baseURL, list)
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func listSlug(category string) string {
	trimmed := strings.TrimSpace(strings.ToLower(category))
	if trimmed == "" {
		return overviewList
	}
	return strings.ReplaceAll(trimmed, " ", "-")
}
