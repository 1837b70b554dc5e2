package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"kbprep/internal/contextutil"
	"kbprep/internal/preprocess"
)

// defaultFilename is used when a request does not name its document.
const defaultFilename = "document.md"

// PreprocessHandler handles HTTP requests for document preprocessing.
type PreprocessHandler struct {
	preprocessor preprocess.Preprocessor
}

// NewPreprocessHandler creates a new PreprocessHandler.
func NewPreprocessHandler(preprocessor preprocess.Preprocessor) *PreprocessHandler {
	return &PreprocessHandler{
		preprocessor: preprocessor,
	}
}

// PreprocessRequest represents the HTTP request payload for preprocessing.
// This mirrors preprocess.Document and preprocess.Options but is defined here
// for HTTP layer separation.
//
// swagger:model PreprocessRequest
type PreprocessRequest struct {
	// Markdown content to preprocess
	Content string `json:"content"`

	// Name of the source file, used to derive the output filename
	Filename string `json:"filename,omitempty"`

	// Maximum chunk length in characters (default 8000)
	MaxChunkLength int `json:"max_chunk_length,omitempty"`

	// Deepest heading level that starts a new chunk (default 3)
	SplitMaxLevel int `json:"split_max_level,omitempty"`

	// Rewrite markdown tables as JSON code blocks before splitting
	NormalizeTables bool `json:"normalize_tables,omitempty"`

	// Root segment prepended to every chunk path
	SourceName string `json:"source_name,omitempty"`
}

// PreprocessResponse represents the HTTP response payload for preprocessing.
//
// swagger:model PreprocessResponse
type PreprocessResponse struct {
	// The annotated, chunk-delimited output text
	Output string `json:"output"`

	// Suggested filename for the output
	OutputFilename string `json:"output_filename"`

	// MIME type of the output
	MimeType string `json:"mime_type"`

	// Number of chunks in the output
	Chunks int `json:"chunks"`

	// Number of chunk delimiters in the output
	Delimiters int `json:"delimiters"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for document preprocessing.
//
// Split a markdown document into bounded chunks, each annotated with its
// heading path, ready for knowledge base ingestion.
//
// swagger:route POST /api/v1/preprocess preprocessDocument
//
// # Preprocess a markdown document
//
// Annotates every chunk with the heading path that leads to it and separates
// chunks with an explicit delimiter line. Options left at their zero value
// fall back to the service defaults.
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
//     "$ref": "#/definitions/PreprocessRequest"
//
// responses:
//
//	'200':
//	  description: Successful response with the preprocessed output
//	  schema:
//	    "$ref": "#/definitions/PreprocessResponse"
//	'400':
//	  description: Bad request (malformed body, empty content, or invalid options)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *PreprocessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req PreprocessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate request
	if req.Content == "" {
		logger.WarnContext(ctx, "empty content in request")
		h.writeError(w, http.StatusBadRequest, "Content is required")
		return
	}

	if req.Filename == "" {
		req.Filename = defaultFilename
	}

	doc := preprocess.Document{
		Name:    req.Filename,
		Content: req.Content,
	}
	opts := preprocess.Options{
		MaxChunkLength:  req.MaxChunkLength,
		SplitMaxLevel:   req.SplitMaxLevel,
		NormalizeTables: req.NormalizeTables,
		SourceName:      req.SourceName,
	}

	result, err := h.preprocessor.Preprocess(ctx, doc, opts)
	if err != nil {
		if errors.Is(err, preprocess.ErrInvalidInput) {
			logger.WarnContext(ctx, "invalid preprocess options", "error", err)
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.ErrorContext(ctx, "preprocess failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to preprocess document")
		return
	}

	resp := PreprocessResponse{
		Output:         result.Output,
		OutputFilename: result.OutputName,
		MimeType:       "text/plain",
		Chunks:         result.Chunks,
		Delimiters:     result.Delimiters,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
}

// writeError writes an error response.
func (h *PreprocessHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
