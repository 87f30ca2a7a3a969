package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uretimhub/uretimhub-backend/api/controllers"
	"github.com/uretimhub/uretimhub-backend/api/middleware"
	"github.com/uretimhub/uretimhub-backend/internal/cart"
	checkoutsvc "github.com/uretimhub/uretimhub-backend/internal/checkout"
	"github.com/uretimhub/uretimhub-backend/internal/interactions"
	"github.com/uretimhub/uretimhub-backend/internal/listings"
	"github.com/uretimhub/uretimhub-backend/internal/notifications"
	"github.com/uretimhub/uretimhub-backend/internal/orders"
	"github.com/uretimhub/uretimhub-backend/pkg/config"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	pkgredis "github.com/uretimhub/uretimhub-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *pkgredis.Client
	Pingers       map[string]controllers.Pinger
	Listings      *listings.Service
	Interactions  *interactions.Service
	Cart          *cart.Service
	Checkout      *checkoutsvc.Service
	Orders        *orders.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/", controllers.GetProduct(deps.Listings, logg))
			r.Post("/orders", controllers.AddOrderInteraction(deps.Interactions, logg))
		})
		r.Get("/production-listings/{listingId}", controllers.GetProductionListing(deps.Listings, logg))

		r.Route("/listings/{kind}/{listingId}", func(r chi.Router) {
			r.Post("/like", controllers.ToggleLike(deps.Interactions, logg))
			r.Post("/comments", controllers.AddComment(deps.Interactions, logg))
			r.Post("/offers", controllers.AddOffer(deps.Interactions, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(deps.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/producer", func(r chi.Router) {
			r.Use(middleware.RequireProducer(logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListMyProducts(deps.Listings, logg))
				r.Post("/", controllers.CreateProduct(deps.Listings, logg))
			})
			r.Route("/production-listings", func(r chi.Router) {
				r.Get("/", controllers.ListMyProductionListings(deps.Listings, logg))
				r.Post("/", controllers.CreateProductionListing(deps.Listings, logg))
			})

			r.Route("/listings/{kind}/{listingId}", func(r chi.Router) {
				r.Post("/activate", controllers.ActivateListing(deps.Listings, logg))
				r.Post("/deactivate", controllers.DeactivateListing(deps.Listings, logg))
				r.Post("/offers/{offerId}/decision", controllers.DecideOffer(deps.Interactions, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListSellerOrders(deps.Orders, logg))
				r.Post("/{orderId}/status", controllers.AdvanceOrderStatus(deps.Orders, logg))
			})
		})
	})

	return r
}
