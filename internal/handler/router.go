package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	custommiddleware "github.com/mmeshcher/bgremover/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Encoding"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(chimiddleware.Timeout(90 * time.Second))

	r.Get("/healthz", h.Healthz)

	r.Route("/api/payment", func(r chi.Router) {
		r.Post("/orders", h.CreateOrder)
		r.Post("/verify", h.VerifyPayment)
	})

	r.Route("/api/cutout", func(r chi.Router) {
		r.Post("/", h.RemoveBackground)
		r.With(h.premium.Middleware).Post("/premium", h.RemoveBackgroundPremium)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
