package router

import (
	"net/http"
	"time"

	"eco-kart/internal/handler"
	"eco-kart/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
	Loyalty  *handler.LoyaltyHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// Catalogue and reward browsing only need the API key; everything else also
// needs a resolved user.
func New(h Handlers, apiKey string, requestTimeout time.Duration, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))
	if requestTimeout > 0 {
		r.Use(chimw.Timeout(requestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Product.List)
		r.Get("/products/{id}", h.Product.GetByID)
		r.Get("/rewards", h.Loyalty.Rewards)

		// Fulfilment collaborator, not a shopper.
		r.Patch("/orders/{id}/status", h.Order.UpdateStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logger))

			r.Get("/cart", h.Cart.Get)
			r.Delete("/cart", h.Cart.Clear)
			r.Post("/cart/items", h.Cart.AddItem)
			r.Put("/cart/items", h.Cart.SetQuantity)
			r.Delete("/cart/items", h.Cart.RemoveItem)

			r.Post("/checkout", h.Checkout.Checkout)

			r.Get("/orders", h.Order.List)
			r.Get("/orders/{id}", h.Order.GetByID)
			r.Post("/orders/{id}/cancel", h.Order.Cancel)

			r.Get("/loyalty/balance", h.Loyalty.Balance)
			r.Get("/loyalty/history", h.Loyalty.History)
			r.Get("/loyalty/redemptions", h.Loyalty.Redemptions)
			r.Post("/loyalty/rewards/{id}/claim", h.Loyalty.ClaimReward)
		})
	})

	return r
}
