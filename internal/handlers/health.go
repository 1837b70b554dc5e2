package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"kbprep/internal/contextutil"
	"kbprep/internal/preprocess"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	preprocessor       preprocess.Preprocessor
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(preprocessor preprocess.Preprocessor) *HealthHandler {
	return &HealthHandler{
		preprocessor:       preprocessor,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Check the health status of the service.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Runs a probe document through the preprocessor to verify the splitter and
// its configured defaults are working.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Service is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: Service is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Create context with timeout for health checks
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	// Run a minimal document through the preprocessor. This exercises the
	// splitter and validates the configured defaults.
	if h.checkSplitter(checkCtx, logger) {
		checks["splitter"] = "ok"
	} else {
		checks["splitter"] = "error"
		issues = append(issues, "splitter_unavailable")
	}

	// Determine overall status
	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if len(issues) > 0 {
		response.Issues = issues
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

// checkSplitter checks that the preprocessor can process a document.
func (h *HealthHandler) checkSplitter(ctx context.Context, logger *slog.Logger) bool {
	doc := preprocess.Document{Name: "probe.md", Content: "# probe\n"}
	if _, err := h.preprocessor.Preprocess(ctx, doc, preprocess.Options{}); err != nil {
		logger.WarnContext(ctx, "splitter health check failed", "error", err)
		return false
	}
	return true
}
