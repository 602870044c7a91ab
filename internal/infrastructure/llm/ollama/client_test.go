package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/resilience"
)

func testRunner() *resilience.Runner {
	return resilience.NewRunner(resilience.Config{
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     2,
		BreakerEnabled: false,
	})
}

func picksJSON(n int) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"title":"Book %d","author":"Author %d","genres":["Fantasy"],"rating":4.2,"year":2019,"description":"A tale."}`, i, i)
	}
	sb.WriteString("]")
	return sb.String()
}

func TestRecommendParsesStructuredPicks(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		resp := map[string]string{"response": picksJSON(domain.RecommendationBatchSize)}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New(server.URL, "llama3", testRunner())
	library := []domain.Book{{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genres: []string{"Fantasy"}, Rating: 4.5}}

	picks, err := client.Recommend(context.Background(), "cozy fantasy", library)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(picks) != domain.RecommendationBatchSize {
		t.Fatalf("expected %d picks, got %d", domain.RecommendationBatchSize, len(picks))
	}
	if picks[0].SourceProviderID != "ollama" {
		t.Fatalf("expected ollama provider id, got %q", picks[0].SourceProviderID)
	}
	if !strings.Contains(capturedPrompt, "cozy fantasy") || !strings.Contains(capturedPrompt, "The Hobbit") {
		t.Fatalf("prompt missing query or shelf context:\n%s", capturedPrompt)
	}
}

func TestRecommendWrongCountIsParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": picksJSON(3)})
	}))
	defer server.Close()

	client := New(server.URL, "llama3", testRunner())
	_, err := client.Recommend(context.Background(), "anything", nil)
	if !domain.IsKind(err, domain.ErrParseFailure) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestRecommendNonJSONIsParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "Sure! Here are some books you might like..."})
	}))
	defer server.Close()

	client := New(server.URL, "llama3", testRunner())
	_, err := client.Recommend(context.Background(), "anything", nil)
	if !domain.IsKind(err, domain.ErrParseFailure) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestRecommendToleratesChatterAroundArray(t *testing.T) {
	wrapped := "Here you go:\n" + picksJSON(domain.RecommendationBatchSize) + "\nEnjoy!"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": wrapped})
	}))
	defer server.Close()

	client := New(server.URL, "llama3", testRunner())
	picks, err := client.Recommend(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(picks) != domain.RecommendationBatchSize {
		t.Fatalf("expected %d picks, got %d", domain.RecommendationBatchSize, len(picks))
	}
}

func TestRecommendServerDownIsProviderFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "llama3", testRunner())
	_, err := client.Recommend(context.Background(), "anything", nil)
	if !domain.IsProviderFault(err) {
		t.Fatalf("expected provider fault, got %v", err)
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
