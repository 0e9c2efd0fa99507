package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickward/vesper"
	"github.com/patrickward/vesper/internal/config"
	"github.com/patrickward/vesper/internal/rendering"
	"github.com/patrickward/vesper/internal/search"
	"github.com/patrickward/vesper/internal/workers"
)

// Server holds the application state and configuration
type Server struct {
	cfg               *config.Config
	workspace         *vesper.Workspace
	extensions        *vesper.ExtensionStore
	searches          *vesper.SearchService
	backgroundWorker  *workers.BackgroundWorker
	renderer          *rendering.MarkdownRenderer
	encryptionManager *vesper.EncryptionManager
	previewTempl      *template.Template
	httpServer        *http.Server
}

// ServerOption for configuring the server with functional options pattern
type ServerOption func(*Server) error

// NewServer initializes the server for the workspace and data directory in cfg
func NewServer(ctx context.Context, cfg *config.Config, opts ...ServerOption) (*Server, error) {
	workspaceRoot, err := vesper.NewRootManager(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("could not open workspace: %w", err)
	}

	dataRoot, err := vesper.NewRootManager(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("could not open data directory: %w", err)
	}

	previewTempl, err := parsePreviewTemplate()
	if err != nil {
		return nil, fmt.Errorf("could not parse templates: %w", err)
	}

	s := &Server{
		cfg:              cfg,
		extensions:       vesper.NewExtensionStore(dataRoot),
		backgroundWorker: workers.NewBackgroundWorker(ctx),
		renderer:         rendering.NewMarkdownRenderer(),
		previewTempl:     previewTempl,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.workspace = vesper.NewWorkspace(workspaceRoot, s.encryptionManager)
	s.searches = vesper.NewSearchService(s.backgroundWorker, search.Options{
		Workers:       cfg.Search.Workers,
		RespectIgnore: cfg.Search.RespectIgnore,
	}, cfg.Search.JobRetention)

	s.setupBackgroundTasks()

	return s, nil
}

// WithEncryptionManager sets the encryption manager for the server
func WithEncryptionManager(manager *vesper.EncryptionManager) ServerOption {
	return func(s *Server) error {
		s.encryptionManager = manager
		return nil
	}
}

func (s *Server) setupBackgroundTasks() {
	interval := s.cfg.Search.PruneInterval
	if interval <= 0 {
		interval = time.Minute
	}
	s.searches.StartPruning(interval)
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the server and blocks until it is stopped by a signal or fails
func (s *Server) Start(addr string, port int) error {
	serverAddr := fmt.Sprintf("%s:%d", addr, port)

	s.httpServer = &http.Server{
		Addr:         serverAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  time.Minute,
		Handler:      s.Handler(),
	}

	// Channel to receive OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Start the http server in a separate goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", serverAddr)
		log.Printf("Workspace: %s", s.workspace.Root().Path())
		log.Printf("Extensions: %s", s.extensions.Dir())
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	// Wait for either termination signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.backgroundWorker.Shutdown()
			return fmt.Errorf("could not start server: %w", err)
		}
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating shutdown", sig)
	}

	return s.Shutdown()
}

// Shutdown stops running searches, then the HTTP server and background tasks
func (s *Server) Shutdown() error {
	log.Println("Shutting down server...")

	s.searches.CancelAll()

	// Create a timeout context for the shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if s.httpServer != nil {
		log.Println("Shutting down HTTP server...")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during HTTP server shutdown: %v", err)
		}
	}

	s.backgroundWorker.Shutdown()

	log.Println("Server shutdown complete")
	return nil
}
