package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBody  = 64 << 10
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) CreateIntent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_intent")

	var req transport.CreateIntentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_intent", "invalid body", err)
	}

	out, err := h.Svc.CreateIntent(ctx, authmw.CallerFrom(c), req.OrderID)
	if err != nil {
		return fail(c, l, "create_intent", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.confirm")

	var req transport.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "confirm_payment", "invalid body", err)
	}

	out, err := h.Svc.Confirm(ctx, authmw.CallerFrom(c), req.PaymentIntentID)
	if err != nil {
		return fail(c, l, "confirm_payment", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.my_payments")

	out, err := h.Svc.MyPayments(ctx, authmw.CallerFrom(c))
	if err != nil {
		return fail(c, l, "my_payments", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Webhook rejects oversized bodies with 413 and unverifiable deliveries with
// 400. Everything else is acknowledged with 200, even when applying the event failed.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return badRequest(c, l, "webhook", "Invalid payload", err)
	}
	if len(payload) > maxWebhookBody {
		l.Warn("webhook_error", "status", http.StatusRequestEntityTooLarge, "limit", maxWebhookBody)
		return c.JSON(http.StatusRequestEntityTooLarge, errorBody{Error: "Payload too large"})
	}

	err = h.Svc.HandleEvent(ctx, payload, c.Request().Header.Get(signatureHeader))
	switch {
	case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrInvalidPayload):
		return fail(c, l, "webhook", err)
	case err != nil:
		l.Error("webhook_error", "status", http.StatusOK, "error", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}
