package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REC_SIMILARITY_FAVORITES", "")
	t.Setenv("REC_FAVORITE_MIN_RATING", "")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %q", cfg.APIPort)
	}
	if cfg.NATSSubject != "imports.requested" {
		t.Fatalf("expected default nats subject, got %q", cfg.NATSSubject)
	}
	if cfg.RecSimilarityFavorites != 3 {
		t.Fatalf("expected default similarity favorites 3, got %d", cfg.RecSimilarityFavorites)
	}
	if cfg.RecFavoriteMinRating != 4.0 {
		t.Fatalf("expected default favorite min rating 4.0, got %v", cfg.RecFavoriteMinRating)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REC_TRENDING_GENRES", "5")
	t.Setenv("REC_REPLACEMENT_MIN_RATING", "3.0")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	if cfg.RecTrendingGenres != 5 {
		t.Fatalf("expected trending genres override, got %d", cfg.RecTrendingGenres)
	}
	if cfg.RecReplacementMinRating != 3.0 {
		t.Fatalf("expected replacement rating override, got %v", cfg.RecReplacementMinRating)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadYAMLFileWithEnvWinning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api_port: \"9999\"\nollama_model: mistral\nrec_seed: 77\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7777")

	cfg := Load()
	if cfg.OllamaModel != "mistral" {
		t.Fatalf("expected yaml model override, got %q", cfg.OllamaModel)
	}
	if cfg.RecSeed != 77 {
		t.Fatalf("expected yaml seed override, got %d", cfg.RecSeed)
	}
	if cfg.APIPort != "7777" {
		t.Fatalf("environment must win over the file, got %q", cfg.APIPort)
	}
}
