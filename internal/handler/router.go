package handler

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	custommiddleware "github.com/mmeshcher/juentregas/internal/middleware"
)

//go:embed swagger.json
var swaggerJSON []byte

// SetupRouter настраивает HTTP-маршруты и middleware сервиса JuEntregas.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RateLimit(h.rateLimit.Limiter, "tracking", h.rateLimit.Limit, h.rateLimit.Window, h.logger))

			r.Get("/tracking", h.Track)
			r.Get("/tracking/{orderNumber}", h.Track)
		})

		r.Post("/quotes", h.RequestQuote)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/dashboard", h.Dashboard)

			r.Get("/clients", h.ListClients)
			r.Post("/clients", h.CreateClient)
			r.Put("/clients/{id}", h.UpdateClient)
			r.Delete("/clients/{id}", h.DeleteClient)

			r.Get("/orders", h.ListOrders)
			r.Post("/orders", h.CreateOrder)
			r.Get("/orders/{id}", h.GetOrder)
			r.Put("/orders/{id}", h.UpdateOrder)
			r.Delete("/orders/{id}", h.DeleteOrder)
			r.Post("/orders/{id}/events", h.AppendEvent)
		})
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(swaggerJSON)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
