package main

import (
	"io"
	"net/http"
)

// maxBodySize caps request bodies written to the workspace
const maxBodySize = 32 << 20 // 32MiB

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.workspace.ListEntries(r.URL.Query().Get("path"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	s.respondWithJSON(w, entries, http.StatusOK)
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondWithBadRequest(w, "missing path")
		return
	}

	content, err := s.workspace.ReadFile(path)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, content)
}

func (s *Server) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondWithBadRequest(w, "missing path")
		return
	}

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.respondWithBadRequest(w, "could not read request body: "+err.Error())
		return
	}

	if err := s.workspace.WriteFile(path, string(content)); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondWithBadRequest(w, "missing path")
		return
	}

	if err := s.workspace.RemoveFile(path); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateDirectory(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondWithBadRequest(w, "missing path")
		return
	}

	if err := s.workspace.CreateDirectory(path); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleRemoveDirectory(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondWithBadRequest(w, "missing path")
		return
	}

	if err := s.workspace.RemoveDirectory(path); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
