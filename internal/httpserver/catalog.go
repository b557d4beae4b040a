package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list")

	page, size := pageParams(c)
	out, err := h.Svc.ListProducts(ctx, page, size)
	if err != nil {
		return fail(c, l, "list_products", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get")

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "get_product", "invalid id", err)
	}
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(c, l, "get_product", err)
	}
	return c.JSON(http.StatusOK, p)
}
