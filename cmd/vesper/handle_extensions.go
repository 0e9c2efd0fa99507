package main

import (
	"io"
	"net/http"
)

func (s *Server) handleListExtensions(w http.ResponseWriter, r *http.Request) {
	names, err := s.extensions.List()
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	s.respondWithJSON(w, names, http.StatusOK)
}

func (s *Server) handleGetExtension(w http.ResponseWriter, r *http.Request) {
	content, err := s.extensions.Load(r.PathValue("name"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = io.WriteString(w, content)
}

func (s *Server) handleSaveExtension(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.respondWithBadRequest(w, "could not read request body: "+err.Error())
		return
	}

	if err := s.extensions.Save(r.PathValue("name"), string(content)); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
