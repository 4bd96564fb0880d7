// Package server exposes the point-collection tool over HTTP: a JSON API
// for sessions, points, imports, and exports, plus the embedded browser UI.
package server

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/click2vector/internal/config"
	"github.com/sells-group/click2vector/internal/session"
	"github.com/sells-group/click2vector/internal/sheets"
)

//go:embed web
var webFS embed.FS

// Server hosts the web UI and JSON API.
type Server struct {
	cfg      *config.Config
	registry *session.Registry
	fetcher  *sheets.Fetcher
}

// New creates a Server.
func New(cfg *config.Config, registry *session.Registry, fetcher *sheets.Fetcher) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		fetcher:  fetcher,
	}
}

// Handler assembles the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/points", s.handleListPoints)
			r.Post("/points", s.handleAddPoint)
			r.Delete("/points", s.handleClearPoints)
			r.Patch("/points/{index}", s.handleRenamePoint)
			r.Delete("/points/{index}", s.handleDeletePoint)
			r.Post("/import/sheet", s.handleImportSheet)
			r.Post("/import/upload", s.handleImportUpload)
			r.Get("/export", s.handleExport)
		})
	})

	// The browser UI.
	static, err := fs.Sub(webFS, "web")
	if err != nil {
		// Embed paths are fixed at compile time; this cannot fail at runtime.
		panic(err)
	}
	r.Handle("/*", http.FileServer(http.FS(static)))

	return r
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server: listening", zap.Int("port", s.cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

// requestLogger logs each request with zap at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
