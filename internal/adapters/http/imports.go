package httpadapter

import (
	"net/http"
	"strings"
)

func (rt *Router) uploadImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	job, err := rt.importer.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) importByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/imports/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "import job id is required"})
		return
	}

	job, err := rt.importRead.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
