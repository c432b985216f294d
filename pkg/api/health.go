package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/workbench-dev/workbench/pkg/cluster"
	"github.com/workbench-dev/workbench/pkg/metrics"
)

// HealthServer exposes the worker's liveness, readiness and metrics
// endpoints. It is the worker's only listener; the loops themselves have no
// callable API.
type HealthServer struct {
	cluster *cluster.Client
	mux     *http.ServeMux
	server  *http.Server
	version string
}

// NewHealthServer creates the health check HTTP server
func NewHealthServer(c *cluster.Client, version string) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		cluster: c,
		mux:     mux,
		version: version,
	}

	// Register endpoints
	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Start starts the HTTP server and blocks until it stops.
func (hs *HealthServer) Start(addr string) error {
	hs.server = &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	err := hs.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down, letting in-flight requests finish.
func (hs *HealthServer) Stop() {
	if hs.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hs.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// healthHandler implements the /health endpoint
// This is a simple liveness check - returns 200 if the process is alive
func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// readyHandler implements the /ready endpoint
// The worker is ready when the cluster API answers a list call.
func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	if hs.cluster != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := hs.cluster.Ping(ctx); err != nil {
			checks["cluster"] = "error: " + err.Error()
			ready = false
			message = "Cluster API not reachable"
		} else {
			checks["cluster"] = "ok"
		}
	} else {
		checks["cluster"] = "not initialized"
		ready = false
		message = "Cluster client not initialized"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadyResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
		Message:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// GetHandler returns the HTTP handler for embedding in other servers
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}
