package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// HealthServer provides HTTP health check endpoints
type HealthServer struct {
	port        int
	redisClient *redis.Client
	store       *Store
	logger      *zap.Logger
	server      *http.Server
}

// NewHealthServer creates a new health server. store may be nil, in which
// case /build/last always answers 404.
func NewHealthServer(port int, redisClient *redis.Client, store *Store, logger *zap.Logger) *HealthServer {
	return &HealthServer{
		port:        port,
		redisClient: redisClient,
		store:       store,
		logger:      logger,
	}
}

// Handler returns the routes served by the health server
func (hs *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/ready", hs.handleReady)
	mux.HandleFunc("/build/last", hs.handleLastBuild)
	return mux
}

// Start starts the health check server
func (hs *HealthServer) Start() error {
	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", hs.port),
		Handler:           hs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs.logger.Info("starting health server", zap.Int("port", hs.port))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Error("health server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the health check server
func (hs *HealthServer) Stop() error {
	if hs.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs.logger.Info("stopping health server")
	return hs.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth handles the /health endpoint
func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)

	if err := hs.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = fmt.Sprintf("unhealthy: %v", err)
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: checks,
		})
		return
	}
	checks["redis"] = "healthy"
	checks["last_build"] = hs.lastBuildStatus(ctx)

	hs.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Checks: checks,
	})
}

// lastBuildStatus summarises the stored report. A failed build does not
// make the worker unhealthy.
func (hs *HealthServer) lastBuildStatus(ctx context.Context) string {
	if hs.store == nil {
		return "unknown"
	}
	report, err := hs.store.Last(ctx)
	if err != nil {
		if errors.Is(err, ErrNoBuild) {
			return "none"
		}
		return "unknown"
	}

	res := gjson.GetManyBytes(report, "ok", "id", "failed")
	if res[0].Bool() {
		return "ok " + res[1].String()
	}
	return fmt.Sprintf("failed %s (%d pages)", res[1].String(), res[2].Int())
}

// handleReady handles the /ready endpoint
func (hs *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := hs.redisClient.Ping(ctx).Err(); err != nil {
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "not ready",
		})
		return
	}

	hs.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ready",
	})
}

// handleLastBuild serves the full report of the most recent build
func (hs *HealthServer) handleLastBuild(w http.ResponseWriter, r *http.Request) {
	if hs.store == nil {
		hs.respondJSON(w, http.StatusNotFound, HealthResponse{Status: ErrNoBuild.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	report, err := hs.store.Last(ctx)
	switch {
	case errors.Is(err, ErrNoBuild):
		hs.respondJSON(w, http.StatusNotFound, HealthResponse{Status: err.Error()})
		return
	case err != nil:
		hs.logger.Error("failed to load last build", zap.Error(err))
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report); err != nil {
		hs.logger.Error("failed to write response", zap.Error(err))
	}
}

// respondJSON writes a JSON response
func (hs *HealthServer) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		hs.logger.Error("failed to encode response", zap.Error(err))
	}
}
