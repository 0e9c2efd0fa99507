package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"

	"github.com/patrickward/vesper"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondWithJSON writes payload as a JSON response with the given status code.
func (s *Server) respondWithJSON(w http.ResponseWriter, payload any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondWithError maps err to a status code and writes it as {"error": "..."}.
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForError(err)
	if code >= http.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", r.Method, r.URL.Path, err)
	}
	s.respondWithJSON(w, errorResponse{Error: err.Error()}, code)
}

// respondWithBadRequest writes a 400 response with the given message.
func (s *Server) respondWithBadRequest(w http.ResponseWriter, message string) {
	s.respondWithJSON(w, errorResponse{Error: message}, http.StatusBadRequest)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, vesper.ErrNotText), errors.Is(err, vesper.ErrNoIdentities), errors.Is(err, vesper.ErrNoRecipients):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vesper.ErrOutsideRoot), errors.Is(err, vesper.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, vesper.ErrJobNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
