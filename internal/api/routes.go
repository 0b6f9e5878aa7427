package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router: middleware, CORS, health and the
// /api group.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/customers", h.CreateCustomer)
		r.Post("/orders", h.CreateOrder)

		r.Route("/segments", func(r chi.Router) {
			r.Post("/", h.CreateSegment)
			r.Get("/{segmentID}", h.GetSegment)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.DispatchCampaign)
			r.Post("/deliver-now", h.DeliverCampaignNow)
			r.Get("/{campaignID}/stats", h.CampaignStats)
		})

		r.Route("/content", func(r chi.Router) {
			r.Post("/suggest-message", h.SuggestMessage)
			r.Post("/generate-image", h.GenerateImage)
		})
	})

	return r
}
