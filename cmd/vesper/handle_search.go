package main

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/patrickward/vesper"
	"github.com/patrickward/vesper/internal/rendering"
	"github.com/patrickward/vesper/internal/search"
)

// matchResponse is a search match as sent to clients, with its workspace path and
// optionally the line rendered as HTML.
type matchResponse struct {
	search.SearchMatch
	Path string        `json:"path"`
	HTML template.HTML `json:"html,omitempty"`
}

type searchRequest struct {
	Keyword string `json:"keyword"`
	Path    string `json:"path"`
}

type searchResponse struct {
	Job     vesper.JobStatus `json:"job"`
	Matches []matchResponse  `json:"matches"`
}

// matchResponses converts matches for clients. Matches outside the workspace keep an
// empty path.
func (s *Server) matchResponses(matches []search.SearchMatch, withHTML bool) []matchResponse {
	responses := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		resp := matchResponse{SearchMatch: m}
		if rel, err := s.workspace.Root().Rel(m.File); err == nil {
			resp.Path = rel
		}
		if withHTML {
			resp.HTML = rendering.HighlightLine(m)
		}
		responses = append(responses, resp)
	}
	return responses
}

// wantsHTML reports whether the request asked for highlighted HTML lines
func wantsHTML(r *http.Request) bool {
	withHTML, _ := strconv.ParseBool(r.URL.Query().Get("html"))
	return withHTML
}

// handleSearch runs a search and responds once it has finished. A client that goes
// away cancels the search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	root, err := s.workspace.Root().Resolve(query.Get("path"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	matches, err := s.searches.Search(r.Context(), root, query.Get("q"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	s.respondWithJSON(w, s.matchResponses(matches, wantsHTML(r)), http.StatusOK)
}

func (s *Server) handleStartSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.respondWithBadRequest(w, "invalid search request: "+err.Error())
		return
	}

	root, err := s.workspace.Root().Resolve(req.Path)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	job := s.searches.Start(root, req.Keyword, nil)
	s.respondWithJSON(w, job.Status(), http.StatusAccepted)
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, s.searches.Jobs(), http.StatusOK)
}

func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	job, err := s.searches.Job(r.PathValue("id"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	s.respondWithJSON(w, searchResponse{
		Job:     job.Status(),
		Matches: s.matchResponses(job.Results(), wantsHTML(r)),
	}, http.StatusOK)
}

func (s *Server) handleCancelSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.searches.Cancel(r.PathValue("id")); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// handleCancelAllSearches is the "stop current search" action: every running search is
// asked to stop.
func (s *Server) handleCancelAllSearches(w http.ResponseWriter, r *http.Request) {
	cancelled := s.searches.CancelAll()
	s.respondWithJSON(w, map[string]int{"cancelled": cancelled}, http.StatusAccepted)
}
