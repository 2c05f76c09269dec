package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pinemarten/semgrepd/internal/domain"
	m "github.com/pinemarten/semgrepd/internal/model"
)

// VersionProber reports the engine version for health checks.
type VersionProber interface {
	Version(ctx context.Context) string
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status        string `json:"status"`
	EngineVersion string `json:"engineVersion"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// API exposes the scan pipeline over HTTP.
type API struct {
	scanner      domain.Scanner
	prober       VersionProber
	maxBodyBytes int64
}

// NewAPI constructs the HTTP surface. maxBodyBytes caps scan request bodies;
// zero or negative selects the 10 MiB default.
func NewAPI(scanner domain.Scanner, prober VersionProber, maxBodyBytes int64) *API {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 << 20
	}

	return &API{
		scanner:      scanner,
		prober:       prober,
		maxBodyBytes: maxBodyBytes,
	}
}

// Handler returns the routed handler with logging and panic recovery
// wrapped around it.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("POST /api/scan", a.handleScan)

	return a.withLogging(a.withRecovery(mux))
}

// handleHealth always answers 200; a broken engine install degrades the
// version to "unknown" instead of failing the probe.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		EngineVersion: a.prober.Version(r.Context()),
	})
}

func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, a.maxBodyBytes)

	var req m.ScanRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return
		}

		a.writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())

		return
	}

	result, err := a.scanner.Scan(r.Context(), req)
	if err != nil {
		a.writeScanError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, result)
}

// writeScanError maps pipeline failures onto status codes: client input
// errors are 400, the engine timeout is 504 so callers can retry with a
// smaller batch, everything else is 500.
func (a *API) writeScanError(w http.ResponseWriter, r *http.Request, err error) {
	var escErr *domain.PathEscapeError

	var toolErr *domain.ToolFailureError

	switch {
	case errors.As(err, &escErr):
		a.writeError(w, http.StatusBadRequest, escErr.Error())

	case errors.Is(err, domain.ErrScanTimeout):
		a.writeError(w, http.StatusGatewayTimeout, err.Error())

	case errors.Is(err, domain.ErrRulesetMissing):
		a.writeError(w, http.StatusInternalServerError, err.Error())

	case errors.As(err, &toolErr):
		a.writeError(w, http.StatusInternalServerError, toolErr.Diagnostic)

	case r.Context().Err() != nil:
		// The caller went away; there is nobody left to answer.
		slog.Warn("Scan aborted by caller", "path", r.URL.Path, "error", err)

	default:
		slog.Error("Scan failed", "error", err)
		a.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, errorResponse{Error: message})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (a *API) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		slog.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"durationMs", time.Since(start).Milliseconds(),
		)
	})
}

func (a *API) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", rec)
				a.writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", rec))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
