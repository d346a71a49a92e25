// Package server exposes layers over HTTP. Map clients fetch the data of
// lazily loaded layers from /layers/{id}/data, which resolves the layer in
// the deferred pass.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/mapper"
	"github.com/specialistvlad/leafletmm/internal/registry"
)

const shutdownTimeout = 5 * time.Second

// Server serves layer listings and layer data.
type Server struct {
	logger   *slog.Logger
	registry *registry.Registry
	router   *mux.Router

	mu     sync.RWMutex
	mapper *mapper.Mapper
}

// New creates a Server for the given registry and mapper.
func New(ctx context.Context, reg *registry.Registry, m *mapper.Mapper) *Server {
	s := &Server{
		logger:   ctxlog.FromContext(ctx),
		registry: reg,
		mapper:   m,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/layer-types", s.layerTypesHandler).Methods(http.MethodGet)
	r.HandleFunc("/layers", s.layersHandler).Methods(http.MethodGet)
	r.HandleFunc("/layers/{id}", s.layerHandler).Methods(http.MethodGet)
	r.HandleFunc("/layers/{id}/data", s.layerDataHandler).Methods(http.MethodGet)
	r.Use(s.logRequests)
	s.router = r

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetMapper swaps the mapper, e.g. after definitions were reloaded.
func (s *Server) SetMapper(m *mapper.Mapper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapper = m
}

func (s *Server) currentMapper() *mapper.Mapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapper
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("🗺️  Layer server starting", "address", addr)
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("layer server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down layer server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Layer server shutdown failed", "error", err)
		return err
	}
	s.logger.Debug("Layer server shut down gracefully.")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request served.", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr, "duration", time.Since(start))
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) layerTypesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.LayerTypes())
}

func (s *Server) layersHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.currentMapper().Layers())
}

func (s *Server) layerHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	info, ok := s.currentMapper().Layer(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: '%s'", mapper.ErrLayerNotFound, id))
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) layerDataHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deferred := true
	if raw := r.URL.Query().Get("deferred"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid deferred flag %q", raw))
			return
		}
		deferred = v
	}

	ctx := ctxlog.With(ctxlog.WithLogger(r.Context(), s.logger), "request_path", r.URL.Path)
	fc, err := s.currentMapper().LoadLayer(ctx, id, deferred)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mapper.ErrLayerNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err)
		return
	}

	body, err := json.Marshal(fc)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed.", "status", status, "error", err)
	} else {
		s.logger.Debug("Request rejected.", "status", status, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
