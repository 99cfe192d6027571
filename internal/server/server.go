package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/finance-projection/internal/config"
	"github.com/iwvelando/finance-projection/internal/engine"
	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/internal/ledger"
	"github.com/iwvelando/finance-projection/internal/projection"
	"github.com/iwvelando/finance-projection/internal/summary"
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/iwvelando/finance-projection/pkg/output"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	engine      *engine.Engine
	ledger      *ledger.Ledger
}

// Option customizes the handler built by NewHandler.
type Option func(*handler)

// WithEngine replaces the default engine, e.g. one tuned from configuration.
func WithEngine(e *engine.Engine) Option {
	return func(h *handler) {
		if e != nil {
			h.engine = e
		}
	}
}

// WithLedger replaces the default in-memory ledger.
func WithLedger(l *ledger.Ledger) Option {
	return func(h *handler) {
		if l != nil {
			h.ledger = l
		}
	}
}

// NewHandler constructs the HTTP handler serving the projection, forecast,
// insight, summary and ledger API.
func NewHandler(logger *zap.Logger, maxBodySize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}
	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.engine == nil {
		h.engine = engine.New(logger, config.EngineConfig{})
	}
	if h.ledger == nil {
		h.ledger = ledger.NewMemory(logger)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/projection/metrics", h.handleMetrics)

	mux.HandleFunc("POST /api/forecast", h.handleForecast)
	mux.HandleFunc("GET /api/forecast", h.handleForecastSources)
	mux.HandleFunc("GET /api/forecast/{source}", h.handleLatestForecast)

	mux.HandleFunc("POST /api/insights", h.handleInsights)

	mux.HandleFunc("POST /api/summary/annual", h.handleAnnualSummary)
	mux.HandleFunc("POST /api/summary/yearly", h.handleYearlySummary)
	mux.HandleFunc("POST /api/summary/compare", h.handleCompare)

	mux.HandleFunc("POST /api/ledger/{scenario}/register", h.handleLedgerRegister)
	mux.HandleFunc("POST /api/ledger/{scenario}/postings", h.handleLedgerPosting)
	mux.HandleFunc("GET /api/ledger/{scenario}", h.handleLedgerPosition)

	// Full report from an uploaded YAML configuration
	mux.HandleFunc("POST /api/report", h.handleReport)

	mux.HandleFunc("GET /api/version", h.handleVersion)

	return mux
}

type reportResponse struct {
	Scenarios []scenarioView `json:"scenarios"`
	Forecasts []forecastView `json:"forecasts"`
	CSV       string         `json:"csv"`
	Warnings  []string       `json:"warnings,omitempty"`
	Duration  string         `json:"duration"`
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(h.maxBodySize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	conf, err := config.LoadConfigurationFromReader(file)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := conf.ValidateConfiguration()

	report, err := h.engine.Report(conf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to compute report: %v", err), op)
		return
	}

	var csvBuf bytes.Buffer
	if err := output.CsvFormat(&csvBuf, report); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render csv: %v", err), op)
		return
	}

	resp := reportResponse{
		Scenarios: make([]scenarioView, 0, len(report.Scenarios)),
		Forecasts: make([]forecastView, 0, len(report.Forecasts)),
		CSV:       csvBuf.String(),
		Warnings:  warnings,
	}
	for _, s := range report.Scenarios {
		resp.Scenarios = append(resp.Scenarios, newScenarioView(s))
	}
	for _, f := range report.Forecasts {
		resp.Forecasts = append(resp.Forecasts, newForecastView(f))
	}

	elapsed := time.Since(start)
	resp.Duration = elapsed.String()

	h.logger.Info("report computed",
		zap.String("op", op),
		zap.Int("scenarios", len(resp.Scenarios)),
		zap.Int("forecasts", len(resp.Forecasts)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodeJSON reads a size-limited JSON body into dst and reports failures
// itself. It returns false when the caller should stop.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
		case errors.Is(err, io.EOF):
			h.respondErrorWithOp(w, http.StatusBadRequest, "request body is empty", op)
		default:
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		}
		return false
	}
	return true
}

// statusFor maps engine and ledger errors onto HTTP status codes.
func statusFor(err error) int {
	var computation *projection.ComputationError
	var invalidForecast *forecast.InvalidForecastInput
	var seriesCount *summary.TooFewOrTooManySeries

	switch {
	case errors.As(err, &computation), errors.As(err, &invalidForecast), errors.As(err, &seriesCount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrMissingScenarioID), errors.Is(err, ledger.ErrMissingPostingKey):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnknownScenario):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondErr(w http.ResponseWriter, err error, op string) {
	h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Info("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
