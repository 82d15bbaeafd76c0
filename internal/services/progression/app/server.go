// Package server wires the progression store, character seed and MCP
// surface into one runnable process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/storyquest/internal/services/progression/api/mcptools"
	"github.com/louisbranch/storyquest/internal/services/progression/directory"
	"github.com/louisbranch/storyquest/internal/services/progression/service"
	"github.com/louisbranch/storyquest/internal/services/progression/storage/sqlite"
)

// Options configures a progression server.
type Options struct {
	// DBPath is the SQLite file. Defaults to data/progression.db.
	DBPath         string
	// CharactersPath is an optional YAML character seed loaded at startup.
	CharactersPath string
	MCP            mcptools.Config
}

// Server owns the progression store and serves it over MCP.
type Server struct {
	store   *sqlite.Store
	service *service.Service
	mcp     mcptools.Config
}

// New opens storage, applies the character seed and builds the service.
func New(ctx context.Context, opts Options) (*Server, error) {
	if strings.TrimSpace(opts.DBPath) == "" {
		opts.DBPath = filepath.Join("data", "progression.db")
	}
	store, err := openProgressionStore(opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := seedCharacters(ctx, store, opts.CharactersPath); err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Server{
		store:   store,
		service: service.NewService(store),
		mcp:     opts.MCP,
	}, nil
}

// Service returns the progression service backed by the server store.
func (s *Server) Service() *service.Service {
	if s == nil {
		return nil
	}
	return s.service
}

// Run creates and serves a progression server until context cancellation.
func Run(ctx context.Context, opts Options) error {
	server, err := New(ctx, opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the MCP transport until ctx is canceled, then closes storage.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("progression server serving transport=%s", orStdio(s.mcp.Transport))
	if err := mcptools.Run(ctx, s.service, s.mcp); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close progression store: %v", err)
	}
	s.store = nil
}

func openProgressionStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open progression sqlite store: %w", err)
	}
	return store, nil
}

func seedCharacters(ctx context.Context, store *sqlite.Store, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	characters, err := directory.LoadSeedFile(path)
	if err != nil {
		return err
	}
	if len(characters) == 0 {
		return nil
	}
	if err := store.PutCharacters(ctx, characters); err != nil {
		return fmt.Errorf("seed characters: %w", err)
	}
	log.Printf("progression: seeded characters count=%d path=%s", len(characters), path)
	return nil
}

func orStdio(kind mcptools.TransportKind) mcptools.TransportKind {
	if kind == "" {
		return mcptools.TransportStdio
	}
	return kind
}
