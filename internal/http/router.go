package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/car-marketplace/internal/http/handlers"
	"github.com/pribylovaa/car-marketplace/internal/http/middleware"
	"github.com/pribylovaa/car-marketplace/internal/session"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger        *slog.Logger
	Timeout       time.Duration
	Parser        *session.Parser
	SecureCookies bool
	BasePath      string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	if opts.Parser == nil {
		opts.Parser = session.NewParser("", session.Claims{})
	}

	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),                  // безопасно ловим паники
		middleware.RequestID(),                // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger),       // кладём request-scoped логгер в контекст и логируем
		middleware.Session(opts.Parser),       // bearer-токен -> session.Session в контексте
		middleware.CartID(opts.SecureCookies), // cookie cart_id -> идентификатор корзины
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// cart
	r.Get("/cart", h.GetCart)
	r.Delete("/cart", h.ClearCart)
	r.Post("/cart/items", h.AddCartItem)
	r.Get("/cart/items/{listing_id}", h.CartContains)
	r.Delete("/cart/items/{listing_id}", h.RemoveCartItem)
	r.Post("/cart/buy-now", h.BuyNow)

	// comments
	r.Get("/listings/{id}/comments", h.ListComments)
	r.Post("/listings/{id}/comments", h.CreateComment)
	r.Put("/listings/{id}/comments/{comment_id}", h.UpdateComment)
	r.Delete("/listings/{id}/comments/{comment_id}", h.DeleteComment)
	r.Post("/listings/{id}/comments/{comment_id}/replies", h.ReplyToComment)
}
