package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

func (rt *Router) books(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		books, err := rt.library.ListBooks(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"books": books})
	case http.MethodPost:
		var book domain.Book
		if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		created, err := rt.library.AddBook(r.Context(), book)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) bookByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/books/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "book id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		book, err := rt.library.GetBook(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPatch:
		var req struct {
			Rating *float64 `json:"rating"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rating is required"})
			return
		}
		if err := rt.library.RateBook(r.Context(), id, *req.Rating); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case http.MethodDelete:
		if err := rt.library.RemoveBook(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		methodNotAllowed(w)
	}
}
