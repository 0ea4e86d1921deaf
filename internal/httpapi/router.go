package httpapi

import (
	"net/http"

	"articles/backend/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg config.Config, h Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(api chi.Router) {
		api.Route("/articles", func(articles chi.Router) {
			articles.Get("/", h.ListArticles)
			articles.Post("/", h.CreateArticle)
			articles.Post("/scrape", h.ScrapeArticles)
			articles.Get("/{id}", h.GetArticle)
			articles.Put("/{id}", h.UpdateArticle)
			articles.Delete("/{id}", h.DeleteArticle)
		})
		api.Post("/rewrite/{id}", h.RewriteArticle)
	})

	return r
}
