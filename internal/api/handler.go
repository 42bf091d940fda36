// Package api exposes the admin endpoints of the newsletter daemon:
// health, metrics, manual run trigger, and per-recipient preview.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ignite/jellyfin-newsletter/internal/newsletter"
)

// Runner is the newsletter orchestration the API triggers
type Runner interface {
	Run(ctx context.Context) (*newsletter.RunReport, error)
	Preview(ctx context.Context, name string) (string, error)
}

// Handler serves the admin API
type Handler struct {
	runner  Runner
	logger  zerolog.Logger
	running atomic.Bool
}

// NewHandler creates the admin API handler
func NewHandler(runner Runner, logger zerolog.Logger) *Handler {
	return &Handler{runner: runner, logger: logger}
}

// Routes builds the admin router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/run", h.HandleRun)
	r.Get("/api/preview/{name}", h.HandlePreview)
	return r
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runSummary is the JSON shape returned for a triggered run
type runSummary struct {
	RunID      string       `json:"run_id"`
	Recipients int          `json:"recipients"`
	Succeeded  int          `json:"succeeded"`
	Failed     []runFailure `json:"failed,omitempty"`
	DurationMs int64        `json:"duration_ms"`
}

type runFailure struct {
	Recipient string `json:"recipient"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
}

// HandleRun triggers a newsletter run. Only one run may be in flight
// at a time; concurrent triggers get a 409.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		respondJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	defer h.running.Store(false)

	report, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("triggered run failed")
		respondJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	summary := runSummary{
		RunID:      report.RunID,
		Recipients: len(report.Results),
		Succeeded:  report.Succeeded(),
		DurationMs: report.Finished.Sub(report.Started).Milliseconds(),
	}
	for _, res := range report.Failed() {
		summary.Failed = append(summary.Failed, runFailure{
			Recipient: res.Recipient.Name,
			Stage:     res.Stage,
			Error:     res.Err.Error(),
		})
	}
	respondJSON(w, http.StatusOK, summary)
}

// HandlePreview renders one recipient's newsletter without writing or
// sending it.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	html, err := h.runner.Preview(r.Context(), name)
	if err != nil {
		h.logger.Warn().Err(err).Str("recipient", name).Msg("preview failed")
		respondJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Server wraps the admin API in an http.Server with sane timeouts
func Server(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute, // a triggered run can take a while
		IdleTimeout:  120 * time.Second,
	}
}
