package web

import (
	"context"
	"net/http"
	"strings"
)

// listResponse wraps every collection listing.
type listResponse struct {
	Data []map[string]any `json:"data"`
}

type listFunc func(ctx context.Context) ([]map[string]any, error)

func (s *Server) handleCollectionOK(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, s.store.ListValid)
}

func (s *Server) handleCollectionKO(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, s.store.ListInvalid)
}

// handleHistory lists run summaries, as an HTML table for browsers.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !wantsHTML(r) {
		s.list(w, r, s.store.ListSummaries)
		return
	}

	docs, err := s.store.ListSummaries(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := HistoryPage(docs).Render(r.Context(), w); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, fn listFunc) {
	docs, err := fn(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, listResponse{Data: docs})
}

// pinger is implemented by connected stores.
type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth reports liveness and, when the store supports it, reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// wantsHTML checks if the client prefers an HTML response.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
