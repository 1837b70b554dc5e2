package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kbprep/internal/handlers"
	"kbprep/internal/preprocess"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Preprocessor preprocess.Preprocessor
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add middleware
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	// Add CORS middleware
	r.Use(CORS)

	// Create handlers
	preprocessHandler := handlers.NewPreprocessHandler(deps.Preprocessor)
	annotateHandler := handlers.NewAnnotateHandler()
	healthHandler := handlers.NewHealthHandler(deps.Preprocessor)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/preprocess", preprocessHandler)
			r.Method(http.MethodPost, "/annotate", annotateHandler)
		})
	})

	return r
}
