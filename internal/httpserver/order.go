package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/internal/util"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Place(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "place_order", "invalid body", err)
	}

	o, err := h.Svc.PlaceOrder(ctx, authmw.CallerFrom(c), req)
	if err != nil {
		return fail(c, l, "place_order", err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page, size := pageParams(c)
	out, err := h.Svc.List(ctx, authmw.CallerFrom(c), page, size)
	if err != nil {
		return fail(c, l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	page, size := pageParams(c)
	out, err := h.Svc.Mine(ctx, authmw.CallerFrom(c), page, size)
	if err != nil {
		return fail(c, l, "my_orders", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "get_order", "invalid id", err)
	}
	o, err := h.Svc.Get(ctx, authmw.CallerFrom(c), id)
	if err != nil {
		return fail(c, l, "get_order", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "update_status", "invalid id", err)
	}
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_status", "invalid body", err)
	}

	o, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return fail(c, l, "update_status", err)
	}
	return c.JSON(http.StatusOK, o)
}

func pageParams(c echo.Context) (int, int) {
	return util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
}
