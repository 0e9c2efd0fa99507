package main

import (
	"net/http"
)

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Workspace files
	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("GET /api/file", s.handleReadFile)
	mux.HandleFunc("PUT /api/file", s.handleWriteFile)
	mux.HandleFunc("DELETE /api/file", s.handleRemoveFile)
	mux.HandleFunc("POST /api/directories", s.handleCreateDirectory)
	mux.HandleFunc("DELETE /api/directories", s.handleRemoveDirectory)

	// Search
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/searches", s.handleListSearches)
	mux.HandleFunc("POST /api/searches", s.handleStartSearch)
	mux.HandleFunc("POST /api/searches/cancel", s.handleCancelAllSearches)
	mux.HandleFunc("GET /api/searches/stream", s.handleSearchStream)
	mux.HandleFunc("GET /api/searches/{id}", s.handleGetSearch)
	mux.HandleFunc("DELETE /api/searches/{id}", s.handleCancelSearch)

	// Extensions
	mux.HandleFunc("GET /api/extensions", s.handleListExtensions)
	mux.HandleFunc("GET /api/extensions/{name}", s.handleGetExtension)
	mux.HandleFunc("PUT /api/extensions/{name}", s.handleSaveExtension)

	// Markdown preview
	mux.HandleFunc("GET /preview/{path...}", s.handlePreview)

	return mux
}
