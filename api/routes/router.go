package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/addresses"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/content"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/search"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Dependencies are the services the HTTP layer serves. Gatherer defaults to
// the prometheus default registry.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency middleware.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Catalog   catalog.Service
	Content   content.Service
	Shipping  shipping.Service
	Cart      cart.Service
	Checkout  checkoutsvc.Service
	Orders    orders.Service
	Addresses addresses.Service
	Wishlist  wishlist.Service
	Searches  search.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Catalog, logg))
		r.Get("/categories/{id}", controllers.CategoryDetail(deps.Catalog, logg))
		r.Get("/brands/{id}", controllers.BrandDetail(deps.Catalog, logg))
		r.Get("/vendors/{id}", controllers.VendorDetail(deps.Catalog, logg))
		r.Get("/taxes/{id}", controllers.TaxDetail(deps.Catalog, logg))

		r.Get("/blogs", controllers.ListBlogs(deps.Content, logg))
		r.Get("/blogs/{idOrSlug}", controllers.BlogDetail(deps.Content, logg))
		r.Get("/faqs", controllers.ListFAQs(deps.Content, logg))

		r.Post("/shipping/quote", controllers.ShippingQuote(deps.Shipping, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.Post("/actions", cartcontrollers.CartDispatch(deps.Cart, logg))
				r.Post("/quote", cartcontrollers.CartQuote(deps.Cart, logg))
				r.Post("/coupon", cartcontrollers.CartApplyCoupon(deps.Cart, logg))
				r.Delete("/coupon", cartcontrollers.CartClearCoupon(deps.Cart, logg))
			})

			r.With(middleware.Idempotency(deps.Idempotency, cfg.Checkout.IdempotencyTTL, logg)).
				Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			})

			r.Route("/account", func(r chi.Router) {
				r.Get("/addresses", controllers.AddressList(deps.Addresses, logg))
				r.Post("/addresses", controllers.AddressCreate(deps.Addresses, logg))
				r.Put("/addresses/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
				r.Delete("/addresses/{addressId}", controllers.AddressDelete(deps.Addresses, logg))

				r.Get("/wishlist", controllers.WishlistList(deps.Wishlist, logg))
				r.Put("/wishlist/{productId}", controllers.WishlistAdd(deps.Wishlist, logg))
				r.Delete("/wishlist/{productId}", controllers.WishlistRemove(deps.Wishlist, logg))

				r.Get("/searches", controllers.RecentSearches(deps.Searches, logg))
				r.Post("/searches", controllers.RecordSearch(deps.Searches, logg))
				r.Delete("/searches", controllers.ClearSearches(deps.Searches, logg))
			})
		})
	})

	return r
}
