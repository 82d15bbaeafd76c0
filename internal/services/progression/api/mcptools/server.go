// Package mcptools exposes the progression service as MCP tools and
// resources over stdio or streamable HTTP.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/storyquest/internal/platform/timeouts"
	"github.com/louisbranch/storyquest/internal/services/progression/service"
)

const (
	serverName    = "storyquest-progression"
	serverVersion = "0.1.0"

	defaultHTTPAddr = "localhost:8090"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves the streamable HTTP transport.
	TransportHTTP TransportKind = "http"
)

// ParseTransport normalizes a transport name. Empty selects stdio.
func ParseTransport(value string) (TransportKind, error) {
	switch TransportKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", TransportStdio:
		return TransportStdio, nil
	case TransportHTTP:
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("transport %q is not supported", value)
	}
}

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	HTTPAddr  string // defaults to localhost:8090
}

// NewServer registers every progression tool and resource on a new MCP
// server.
func NewServer(svc *service.Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerLedgerTools(server, svc)
	registerMissionTools(server, svc)
	registerCharacterTools(server, svc)
	server.AddResourceTemplate(PlayerResourceTemplate(), PlayerResourceHandler(svc))
	server.AddResourceTemplate(PlayerMissionsResourceTemplate(), PlayerMissionsResourceHandler(svc))
	return server
}

// Run serves svc until ctx is canceled or the transport closes.
func Run(ctx context.Context, svc *service.Service, cfg Config) error {
	if svc == nil {
		return errors.New("progression service is required")
	}
	switch cfg.Transport {
	case "", TransportStdio:
		return NewServer(svc).Run(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return runHTTP(ctx, NewServer(svc), cfg.HTTPAddr)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

func runHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	if strings.TrimSpace(addr) == "" {
		addr = defaultHTTPAddr
	}
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("progression: mcp http listening addr=%s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve mcp http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown mcp http: %w", err)
	}
	return nil
}
