package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/booknest/booknest-backend/internal/auth"
	"github.com/booknest/booknest-backend/internal/cart"
	"github.com/booknest/booknest-backend/internal/catalog"
)

type RouterDeps struct {
	Orders           OrderService
	Carts            cart.Repository
	Catalog          catalog.Repository
	Auth             *auth.Service
	CORSAllowOrigins []string
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(CORS(deps.CORSAllowOrigins))
	r.Use(UserID)

	r.Get("/api/health", healthHandler)

	authHandler := NewAuthHandler(deps.Auth)
	bookHandler := NewBookHandler(deps.Catalog)
	cartHandler := NewCartHandler(deps.Carts)
	orderHandler := NewOrderHandler(deps.Orders)
	paymentHandler := NewPaymentHandler()

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", bookHandler.ListBooks)
		r.Get("/{bookId}", bookHandler.GetBook)
	})
	r.Get("/api/categories", bookHandler.ListCategories)

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Post("/items", cartHandler.AddItem)
		r.Delete("/items/{bookId}", cartHandler.RemoveItem)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", orderHandler.ListOrders)
		r.Post("/", orderHandler.PlaceOrder)
	})

	r.Post("/api/payment/checkout", paymentHandler.Checkout)

	// Admin endpoints
	r.Post("/api/admin/books", bookHandler.CreateBook)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "OK",
	})
}
