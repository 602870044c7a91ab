package googlebooks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/providers/httpapi"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/resilience"
)

const (
	providerID     = "googlebooks"
	defaultBaseURL = "https://www.googleapis.com/books/v1"
	defaultLimit   = 10
	maxLimit       = 40
	requestsPerSec = 2
	requestBurst   = 2
	requestTimeout = 15 * time.Second
)

// Client searches the Google Books volumes API. Calls are paced with a
// token bucket so bursty strategy fan-out stays under the public quota.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	runner     *resilience.Runner
	limiter    *rate.Limiter
}

func New(baseURL, apiKey string, runner *resilience.Runner) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		runner:     runner,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), requestBurst),
	}
}

type volumesResponse struct {
	Items []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title               string   `json:"title"`
			Authors             []string `json:"authors"`
			Categories          []string `json:"categories"`
			AverageRating       float64  `json:"averageRating"`
			PublishedDate       string   `json:"publishedDate"`
			Description         string   `json:"description"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (c *Client) Search(ctx context.Context, query domain.SearchQuery) ([]domain.RawCandidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var response volumesResponse
	err := c.runner.Do(ctx, "googlebooks.search", httpapi.Classify, func(ctx context.Context) error {
		return httpapi.GetJSON(ctx, c.httpClient, c.searchURL(query), &response, providerID, "search")
	})
	if err != nil {
		return nil, httpapi.WrapFault("googlebooks.search", err)
	}

	out := make([]domain.RawCandidate, 0, len(response.Items))
	for _, item := range response.Items {
		info := item.VolumeInfo
		candidate := domain.RawCandidate{
			SourceProviderID: providerID,
			ExternalID:       providerID + ":" + item.ID,
			Title:            info.Title,
			Genres:           info.Categories,
			Rating:           info.AverageRating,
			Year:             yearOf(info.PublishedDate),
			Description:      info.Description,
			CoverURL:         info.ImageLinks.Thumbnail,
		}
		if len(info.Authors) > 0 {
			candidate.Author = info.Authors[0]
		}
		for _, id := range info.IndustryIdentifiers {
			if id.Type == "ISBN_13" {
				candidate.ISBN = id.Identifier
				break
			}
		}
		out = append(out, candidate)
	}
	return out, nil
}

func (c *Client) searchURL(query domain.SearchQuery) string {
	terms := make([]string, 0, 4)
	if query.Title != "" {
		terms = append(terms, "intitle:"+query.Title)
	}
	if query.Author != "" {
		terms = append(terms, "inauthor:"+query.Author)
	}
	if query.Subject != "" {
		terms = append(terms, "subject:"+query.Subject)
	}
	if query.FreeText != "" {
		terms = append(terms, query.FreeText)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("q", strings.Join(terms, "+"))
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())
}

func yearOf(publishedDate string) int {
	if len(publishedDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(publishedDate[:4])
	if err != nil {
		return 0
	}
	return year
}
