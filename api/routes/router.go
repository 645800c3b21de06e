package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sibusisodev/campusmart-backend/api/controllers"
	"github.com/sibusisodev/campusmart-backend/api/middleware"
	"github.com/sibusisodev/campusmart-backend/internal/auth"
	cartsvc "github.com/sibusisodev/campusmart-backend/internal/cart"
	itemsvc "github.com/sibusisodev/campusmart-backend/internal/items"
	ordersvc "github.com/sibusisodev/campusmart-backend/internal/orders"
	"github.com/sibusisodev/campusmart-backend/internal/payments"
	"github.com/sibusisodev/campusmart-backend/internal/photos"
	usersvc "github.com/sibusisodev/campusmart-backend/internal/users"
	"github.com/sibusisodev/campusmart-backend/pkg/auth/session"
	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles everything the router mounts.
type Services struct {
	Session  sessionManager
	Auth     auth.Service
	Register auth.RegisterService
	Users    usersvc.Service
	Items    itemsvc.Service
	Cart     cartsvc.Service
	Orders   ordersvc.Service
	Payments payments.Service
	Photos   photos.Service
	Uploader *photos.Uploader
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Session, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Session, cfg.JWT, logg))
	})

	// Browse surface stays public; anonymous viewers still count toward
	// listing views.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/categories", controllers.CategoriesList(svcs.Items, logg))
		r.Get("/items", controllers.ItemsBrowse(svcs.Items, logg))
		r.Get("/items/{itemId}", controllers.ItemGet(svcs.Items, logg))
		r.Get("/items/{itemId}/photos", controllers.ItemPhotosList(svcs.Photos, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, svcs.Session, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/users/me", func(r chi.Router) {
			r.Get("/", controllers.Me(svcs.Users, logg))
			r.Get("/profile", controllers.MyProfile(svcs.Users, logg))
			r.Put("/profile", controllers.MyProfileUpdate(svcs.Users, logg))
			r.Get("/photos/stats", controllers.MyPhotoStats(svcs.Photos, logg))
		})

		r.Route("/v1/items", func(r chi.Router) {
			r.Post("/", controllers.ItemCreate(svcs.Items, logg))
			r.Get("/mine", controllers.MyItems(svcs.Items, logg))
			r.Get("/{itemId}", controllers.ItemGet(svcs.Items, logg))
			r.Put("/{itemId}", controllers.ItemUpdate(svcs.Items, logg))
			r.Delete("/{itemId}", controllers.ItemDelete(svcs.Items, logg))
			r.Post("/{itemId}/status", controllers.ItemStatusChange(svcs.Items, logg))
			r.Get("/{itemId}/photos", controllers.ItemPhotosList(svcs.Photos, logg))
		})

		r.Route("/v1/photos", func(r chi.Router) {
			r.Handle("/upload", controllers.PhotoUpload(svcs.Uploader, logg))
			r.Put("/reorder", controllers.PhotoReorder(svcs.Photos, logg))
			r.Delete("/{photoId}", controllers.PhotoDelete(svcs.Photos, logg))
		})

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{lineId}", controllers.CartUpdateLine(svcs.Cart, logg))
			r.Delete("/items/{lineId}", controllers.CartRemoveLine(svcs.Cart, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderPlace(svcs.Orders, logg))
			r.Get("/purchases", controllers.MyPurchases(svcs.Orders, logg))
			r.Get("/sales", controllers.MySales(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svcs.Orders, logg))
			r.Post("/{orderId}/status", controllers.OrderStatusChange(svcs.Orders, logg))
			r.Post("/{orderId}/payments", controllers.OrderPay(svcs.Payments, logg))
			r.Get("/{orderId}/payments", controllers.OrderPayments(svcs.Payments, logg))
		})

		r.Post("/v1/payments/{paymentId}/refund", controllers.PaymentRefund(svcs.Payments, logg))
	})

	return r
}
