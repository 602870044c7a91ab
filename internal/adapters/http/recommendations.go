package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

func (rt *Router) recommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	batch, err := rt.recommender.GetRecommendations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if len(batch) > 0 {
		ids := make([]string, 0, len(batch))
		for _, candidate := range batch {
			ids = append(ids, candidate.ID)
		}
		// Shown history is best-effort; the batch is still delivered.
		if err := rt.recLog.RecordShown(r.Context(), ids); err != nil {
			slog.Warn("could not record shown recommendations", "error", err)
		}
	}
	if rt.metrics != nil {
		rt.metrics.RecordBatch(rt.service, len(batch))
	}

	writeJSON(w, http.StatusOK, map[string]any{"recommendations": batch})
}

func (rt *Router) rejectRecommendation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		Rejected     domain.Candidate   `json:"rejected"`
		CurrentBatch []domain.Candidate `json:"current_batch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Rejected.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rejected.id is required"})
		return
	}

	if err := rt.recLog.AddRejected(r.Context(), req.Rejected.ID); err != nil {
		writeError(w, err)
		return
	}

	replacement, err := rt.recommender.GetReplacement(r.Context(), req.Rejected, req.CurrentBatch)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		tier := "filled"
		if replacement == nil {
			tier = "exhausted"
		}
		rt.metrics.RecordReplacement(rt.service, tier)
	}
	if replacement != nil {
		if err := rt.recLog.RecordShown(r.Context(), []string{replacement.ID}); err != nil {
			slog.Warn("could not record shown replacement", "error", err)
		}
	}

	// Replacement is null when every tier is exhausted.
	writeJSON(w, http.StatusOK, map[string]any{"replacement": replacement})
}

func (rt *Router) discover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	results, err := rt.discoverer.Discover(r.Context(), req.Query)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordDiscover(rt.service, "error")
		}
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		outcome := "hit"
		if len(results) == 0 {
			outcome = "empty"
		}
		rt.metrics.RecordDiscover(rt.service, outcome)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (rt *Router) liked(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		liked, err := rt.recLog.LikedBooks(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"liked": liked})
	case http.MethodPost:
		var candidate domain.Candidate
		if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if candidate.ID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
			return
		}
		if err := rt.recLog.AddLiked(r.Context(), candidate); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, candidate)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) likedByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/liked/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	if err := rt.recLog.RemoveLiked(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
