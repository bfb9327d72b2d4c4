package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tradeflow-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/tradeflow-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/tradeflow-backend/api/controllers/orders"
	"github.com/angelmondragon/tradeflow-backend/api/middleware"
	"github.com/angelmondragon/tradeflow-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/tradeflow-backend/internal/checkout"
	"github.com/angelmondragon/tradeflow-backend/internal/orders"
	"github.com/angelmondragon/tradeflow-backend/pkg/config"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
	"github.com/angelmondragon/tradeflow-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/tradeflow-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Pingers, the idempotency
// store and the gatherer may be nil.
type Dependencies struct {
	Config           *config.Config
	Logger           *logger.Logger
	DBPinger         controllers.Pinger
	RedisPinger      controllers.Pinger
	IdempotencyStore pkgredis.IdempotencyStore
	Gatherer         prometheus.Gatherer
	HTTPMetrics      *metrics.HTTPMetrics

	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(deps.IdempotencyStore, middleware.CriticalIdempotencyTTL, logg)
	retailerOnly := middleware.RequireUserType(enums.UserTypeRetailer, logg)
	wholesalerOnly := middleware.RequireUserType(enums.UserTypeWholesaler, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(retailerOnly)
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			r.Get("/checkout", controllers.CheckoutPrefill(deps.Checkout, logg))
			r.With(idempotent).Post("/place-order", controllers.PlaceOrder(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(retailerOnly).Get("/", ordercontrollers.ListMine(deps.Orders, logg))
			r.With(wholesalerOnly).Get("/received", ordercontrollers.ListReceived(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.With(wholesalerOnly).Patch("/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.With(retailerOnly, idempotent).Post("/{orderId}/cancel", ordercontrollers.CancelOrder(deps.Orders, logg))
		})
	})

	return r
}
