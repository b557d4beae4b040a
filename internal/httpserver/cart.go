package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	cart, err := h.Svc.Get(ctx, authmw.CallerFrom(c))
	if err != nil {
		return fail(c, l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_item", "invalid body", err)
	}

	cart, err := h.Svc.AddItem(ctx, authmw.CallerFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		return fail(c, l, "add_item", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	var req transport.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_item", "invalid body", err)
	}

	cart, err := h.Svc.UpdateItem(ctx, authmw.CallerFrom(c), req.ItemID, req.Quantity)
	if err != nil {
		return fail(c, l, "update_item", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	var req transport.RemoveItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "remove_item", "invalid body", err)
	}

	cart, err := h.Svc.RemoveItem(ctx, authmw.CallerFrom(c), req.ItemID)
	if err != nil {
		return fail(c, l, "remove_item", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	cart, err := h.Svc.Clear(ctx, authmw.CallerFrom(c))
	if err != nil {
		return fail(c, l, "clear_cart", err)
	}
	l.Info("cart_cleared", "cart_id", cart.ID)
	return c.JSON(http.StatusOK, cart)
}
