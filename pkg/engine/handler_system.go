package engine

import (
	"fmt"
	"net/http"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/getmockd/bankmock/pkg/apidocs"
	"github.com/getmockd/bankmock/pkg/httputil"
	"github.com/getmockd/bankmock/pkg/resource"
)

// Paths of the system routes.
const (
	PathHealth         = "/health"
	PathMetrics        = "/metrics"
	PathSimulateErrors = "/simulate-errors"
	PathAPIDocs        = "/apidocs/openapi.json"
)

// SimulatedErrorCodes are the statuses /simulate-errors will produce.
var SimulatedErrorCodes = []int{400, 401, 403, 404, 500, 502, 503}

// Health component states.
const (
	dbConnected    = "connected"
	dbDisconnected = "disconnected"
	serviceActive  = "active"
)

func (h *Handler) registerSystem() {
	h.mux.HandleFunc("GET /{$}", h.handleIndex)
	h.mux.HandleFunc("GET "+PathHealth, h.handleHealth)
	h.mux.HandleFunc("GET "+PathMetrics, h.handleMetrics)
	h.mux.HandleFunc("GET "+PathSimulateErrors, h.handleSimulateErrors)
	h.mux.HandleFunc("GET "+PathAPIDocs, h.handleAPIDocs)
	h.mux.HandleFunc("/", h.handleNotFound)
}

// IndexResponse describes the service.
type IndexResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	endpoints := make([]string, 0, len(resource.All())+4)
	for _, c := range resource.All() {
		endpoints = append(endpoints, c.BasePath)
	}
	endpoints = append(endpoints, PathHealth, PathMetrics, PathSimulateErrors, PathAPIDocs)

	h.write(w, http.StatusOK, IndexResponse{
		Message:   "Mock Server API",
		Version:   Version,
		Endpoints: endpoints,
	})
}

// HealthResponse reports service and database state.
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := dbConnected
	if err := h.engine.Ping(r.Context()); err != nil {
		h.log.Error("database health check failed", "error", err)
		db = dbDisconnected
	}

	status := "OK"
	if db != dbConnected {
		status = "DEGRADED"
	}

	h.write(w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Components: map[string]string{
			"database":     db,
			"auth_service": serviceActive,
		},
	})
}

// MetricsResponse is the operational snapshot served by /metrics.
type MetricsResponse struct {
	// RequestsTotal is the stored transaction count.
	RequestsTotal int              `json:"requests_total"`
	Accounts      AccountCounts    `json:"accounts"`
	MemoryUsage   string           `json:"memory_usage"`
	Operations    *MetricsSnapshot `json:"operations,omitempty"`
}

// AccountCounts splits accounts by holder type.
type AccountCounts struct {
	Physical int `json:"physical"`
	Legal    int `json:"legal"`
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tx, err := h.engine.Count(ctx, resource.KindTransaction)
	if err != nil {
		h.writeError(w, err)
		return
	}
	physical, err := h.engine.Count(ctx, resource.KindPhysicalAccount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	legal, err := h.engine.Count(ctx, resource.KindLegalAccount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := MetricsResponse{
		RequestsTotal: tx,
		Accounts:      AccountCounts{Physical: physical, Legal: legal},
		MemoryUsage:   fmt.Sprintf("%.2f MB", float64(mem.Sys)/1024/1024),
	}
	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		resp.Operations = &snap
	}
	h.write(w, http.StatusOK, resp)
}

func (h *Handler) handleSimulateErrors(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("code")
	if raw == "" {
		raw = "500"
	}

	code, err := strconv.Atoi(raw)
	if err != nil || !slices.Contains(SimulatedErrorCodes, code) {
		h.log.Warn("invalid simulated error code", "code", raw)
		msg := fmt.Sprintf("Allowed error codes: %v", SimulatedErrorCodes)
		h.logWrite(http.StatusBadRequest, httputil.WriteError(w, http.StatusBadRequest, resource.MsgValidation, msg))
		return
	}

	h.log.Info("simulating error", "code", code)
	h.write(w, code, resource.Envelope{Error: "Simulated error", Code: code})
}

func (h *Handler) handleAPIDocs(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, apidocs.Build(Version, apidocs.WithMaxPageSize(h.engine.MaxPageSize())))
}
