package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter builds the HTTP surface for the search service.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(app.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api/search", func(r chi.Router) {
		r.Get("/stats", app.StatsHandler)
		r.Post("/reindex", app.ReindexHandler)
		r.Post("/videos/{id}/reindex", app.ReindexVideoHandler)
		r.Get("/semantic", app.SemanticSearchHandler)
		r.Post("/hybrid", app.HybridSearchHandler)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return corsHandler.Handler(r)
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
