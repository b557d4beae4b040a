package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

const webhookPath = "/api/v1/payments/webhook"

type Deps struct {
	Catalog *CatalogHTTP
	Cart    *CartHTTP
	Order   *OrderHTTP
	Payment *PaymentHTTP
	Chat    *ChatHTTP
	ChatWS  *ChatWS
	Auth    *AuthHTTP

	Identifier *authmw.Identifier
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "not ready"})
		}
		return c.NoContent(http.StatusOK)
	})

	// The webhook is called by the payment provider and carries no caller.
	e.POST(webhookPath, d.Payment.Webhook)

	api := e.Group("/api/v1", d.Identifier.Identify)

	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/logout", d.Auth.Logout)

	api.GET("/products", d.Catalog.List)
	api.GET("/products/:id", d.Catalog.Get)

	cart := api.Group("/cart")
	cart.GET("", d.Cart.Get)
	cart.POST("/add_item", d.Cart.AddItem)
	cart.POST("/update_item", d.Cart.UpdateItem)
	cart.POST("/remove_item", d.Cart.RemoveItem)
	cart.POST("/clear", d.Cart.Clear)

	orders := api.Group("/orders")
	orders.POST("", d.Order.Place)
	orders.GET("", d.Order.List, authmw.RequireUser)
	orders.GET("/my_orders", d.Order.Mine, authmw.RequireUser)
	orders.GET("/:id", d.Order.Get)
	orders.POST("/:id/update_status", d.Order.UpdateStatus, authmw.RequireStaff)

	pay := api.Group("/payments")
	pay.POST("/create_payment_intent", d.Payment.CreateIntent)
	pay.POST("/confirm_payment", d.Payment.Confirm)
	pay.GET("/my_payments", d.Payment.Mine, authmw.RequireUser)

	chat := api.Group("/chat")
	chat.GET("/user", d.Chat.UserRoom)
	chat.POST("/user/send_message", d.Chat.UserSend)
	chat.POST("/user/mark_read", d.Chat.UserMarkRead)

	admin := chat.Group("/admin", authmw.RequireStaff)
	admin.GET("", d.Chat.AdminRooms)
	admin.GET("/:id", d.Chat.AdminRoom)
	admin.POST("/:id/send_message", d.Chat.AdminSend)
	admin.POST("/:id/close_chat", d.Chat.AdminClose)

	e.GET("/ws/chat/:room_id", d.ChatWS.Serve, d.Identifier.Identify)
}

// CSRF protects cookie-authenticated writes. The provider webhook and the
// websocket upgrade are exempt.
func CSRF(secure bool) echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRFToken",
		CookieName:     "csrftoken",
		CookiePath:     "/",
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, webhookPath) || strings.HasPrefix(p, "/ws/")
		},
	})
}
