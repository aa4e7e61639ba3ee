package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Mediarr/config"
	"Mediarr/database"
	"Mediarr/handlers"
	"Mediarr/middleware"
	"Mediarr/services"
	"Mediarr/storage"
)

func buildRouter(cfg *config.Config, dbs *database.Databases, store *storage.Store, sessions *services.SessionService) http.Handler {
	movieSvc := services.NewMovieService(dbs.Movies, cfg.BaseURL)
	mangaSvc := services.NewMangaService(dbs.Mangas, cfg.BaseURL)

	authHandler := handlers.NewAuthHandler(sessions)
	movieHandler := handlers.NewMovieHandler(movieSvc)
	imageHandler := handlers.NewImageHandler(movieSvc, store, cfg)
	mangaHandler := handlers.NewMangaHandler(mangaSvc, store, cfg)
	healthHandler := handlers.NewHealthHandler(dbs)

	r := chi.NewRouter()

	// Global middleware, outermost first
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequireAuth(sessions))

	// Operational endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Session
	r.Post("/api/auth/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)

	// Movie API
	r.Route("/api/movie", func(r chi.Router) {
		r.Get("/items", movieHandler.ListItems)
		r.Get("/items/{id}", movieHandler.GetItem)
		r.Post("/items/{id}/like", movieHandler.Like)
		r.Delete("/items/{id}/like", movieHandler.Unlike)
		r.Get("/items/{id}/precomputed_related", movieHandler.Related)

		r.Get("/images/poster/{id}", imageHandler.ServePoster)
		r.Get("/images/fanart/{id}", imageHandler.ServeFanart)
		r.Get("/images/actor_thumb/{name}", imageHandler.ServeActorThumb)
		r.Get("/stream/{id}", imageHandler.ServeStream)

		r.Get("/genres", movieHandler.Genres)
		r.Get("/libraries", movieHandler.Libraries)
		r.Get("/persons", movieHandler.Persons)
		r.Get("/studios", movieHandler.Studios)
		r.Get("/series", movieHandler.Series)

		r.Get("/movie_collections", movieHandler.ListCollections)
		r.Post("/movie_collections", movieHandler.CreateCollection)
	})

	// Manga API
	r.Route("/api/manga", func(r chi.Router) {
		r.Get("/items", mangaHandler.ListItems)
		r.Get("/items/{id}", mangaHandler.GetItem)
		r.Post("/items/{id}/favorite", mangaHandler.Favorite)

		r.Get("/images/cover/{id}", mangaHandler.ServeCover)
		r.Get("/images/page/{id}/{page}", mangaHandler.ServePage)

		r.Get("/manga_collections", mangaHandler.ListCollections)
	})

	// Static passthrough, also serves the login page
	r.Get("/static/*", imageHandler.ServeStatic)
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static/login.html", http.StatusFound)
	})

	// Catch-alls: API paths get JSON, page paths plain text
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "Not found"}`))
			return
		}
		http.NotFound(w, r)
	})

	return r
}
