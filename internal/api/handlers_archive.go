package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// handleFindCitation lists archived occurrences of a citation.
func (s *Server) handleFindCitation(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "no archive configured", http.StatusNotFound)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	hits, err := s.history.FindCitation(r.Context(), q, queryLimit(r))
	if err != nil {
		jsonError(w, "failed to query archive: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"query": q, "occurrences": hits})
}

// handleListDocuments lists archived analyses, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "no archive configured", http.StatusNotFound)
		return
	}

	docs, err := s.history.Documents(r.Context(), queryLimit(r))
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
