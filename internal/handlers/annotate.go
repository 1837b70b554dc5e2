package handlers

import (
	"encoding/json"
	"net/http"

	"kbprep/internal/contextutil"
	"kbprep/internal/markdown"
)

// AnnotateHandler handles HTTP requests for heading annotation.
type AnnotateHandler struct{}

// NewAnnotateHandler creates a new AnnotateHandler.
func NewAnnotateHandler() *AnnotateHandler {
	return &AnnotateHandler{}
}

// AnnotateRequest represents the HTTP request payload for annotation.
//
// swagger:model AnnotateRequest
type AnnotateRequest struct {
	// Markdown content to annotate
	Content string `json:"content"`
}

// AnnotateResponse represents the HTTP response payload for annotation.
//
// swagger:model AnnotateResponse
type AnnotateResponse struct {
	// Markdown with a data-path attribute appended to every heading
	Output string `json:"output"`
}

// ServeHTTP handles HTTP requests for heading annotation.
//
// Annotate every heading in a markdown document with the path of headings
// that leads to it. The document is returned otherwise unchanged.
//
// swagger:route POST /api/v1/annotate annotateDocument
//
// # Annotate markdown headings
//
// Appends a data-path attribute to each heading line recording the heading
// hierarchy above it.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/AnnotateRequest"
//
// responses:
//
//	'200':
//	  description: Successful response with the annotated markdown
//	  schema:
//	    "$ref": "#/definitions/AnnotateResponse"
//	'400':
//	  description: Bad request (malformed body or empty content)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AnnotateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AnnotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Content == "" {
		logger.WarnContext(ctx, "empty content in request")
		h.writeError(w, http.StatusBadRequest, "Content is required")
		return
	}

	resp := AnnotateResponse{
		Output: markdown.AnnotateHeadingsString(req.Content),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
}

// writeError writes an error response.
func (h *AnnotateHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
