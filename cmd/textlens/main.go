// Entry point for the textlens HTTP service: chi router, SQLite storage,
// batch workers, optional MCP over stdio.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/textlens/dbopen"
	"github.com/hazyhaar/textlens/idgen"
	"github.com/hazyhaar/textlens/kit"
	"github.com/hazyhaar/textlens/service"
)

func main() {
	cfgPath := "textlens.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := service.DefaultConfig()
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := service.LoadConfig(cfgPath)
		if err != nil {
			logger.Error("config", "path", cfgPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		logger.Info("config file not found, using defaults", "path", cfgPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		logger.Error("open db", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc, err := service.New(cfg, db, logger)
	if err != nil {
		logger.Error("init service", "error", err)
		os.Exit(1)
	}

	svc.StartWorkers(ctx)

	// MCP over stdio replaces the HTTP surface when requested.
	if os.Getenv("MCP_TRANSPORT") == "stdio" {
		runMCP(ctx, logger, svc)
		return
	}

	reqIDs := idgen.Prefixed("req_", idgen.Default)
	r := chi.NewRouter()
	r.Use(requestContext(reqIDs))
	svc.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "listen", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// requestContext enriches each request with kit values so log lines and
// stored rows can be correlated.
func requestContext(reqIDs idgen.Generator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqID := reqIDs()
			ctx = kit.WithRequestID(ctx, reqID)
			ctx = kit.WithTransport(ctx, "http")
			ctx = kit.WithRemoteAddr(ctx, r.RemoteAddr)

			w.Header().Set("X-Request-ID", reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func runMCP(ctx context.Context, logger *slog.Logger, svc *service.Service) {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "textlens",
		Version: "1.0.0",
	}, nil)
	svc.RegisterMCP(srv)

	logger.Info("mcp server starting", "transport", "stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("mcp server", "error", err)
		os.Exit(1)
	}
}
