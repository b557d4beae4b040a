package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/mykafka"
	"github.com/Skotchmaster/shopfront/internal/payments"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type PaymentService struct {
	Repo      *repo.GormRepo
	Processor payments.Processor
	Events    Publisher

	Currency       string
	PublishableKey string
	// WebhookConfigured is false when no webhook secret is set; every event is then rejected.
	WebhookConfigured bool

	now func() time.Time
}

func (s *PaymentService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func (s *PaymentService) currency() string {
	if s.Currency == "" {
		return "usd"
	}
	return strings.ToLower(s.Currency)
}

func (s *PaymentService) CreateIntent(ctx context.Context, caller identity.Caller, orderID uint) (*transport.IntentResponse, error) {
	l := logging.FromContext(ctx).With("svc", "payment.create_intent")

	if orderID == 0 {
		return nil, domain.FieldError("order_id", "This field is required.")
	}
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !caller.IsStaff() && !caller.Owns(order.OwnerKind, order.OwnerKey) {
		return nil, &domain.NotFoundError{What: "order"}
	}
	if order.Paid {
		return nil, domain.ErrAlreadyPaid
	}
	existing, err := s.Repo.GetPaymentByOrder(ctx, order.ID)
	switch {
	case err == nil && existing.Status == models.PaymentStatusSucceeded:
		return nil, domain.ErrAlreadyPaid
	case err != nil && !repo.IsNotFound(err):
		return nil, err
	}

	intent, err := s.Processor.CreateIntent(ctx, payments.IntentRequest{
		AmountMinor: order.TotalAmount.Shift(2).Round(0).IntPart(),
		Currency:    s.currency(),
		Description: "Payment for Order " + order.OrderNumber,
		Metadata: map[string]string{
			"order_id":     strconv.FormatUint(uint64(order.ID), 10),
			"order_number": order.OrderNumber,
		},
	})
	if err != nil {
		l.Warn("processor_error", "order_id", order.ID, "error", err)
		return nil, processorError(err)
	}

	pay, err := s.Repo.UpsertPayment(ctx, &models.Payment{
		OrderID:  order.ID,
		IntentID: intent.ID,
		Amount:   order.TotalAmount,
		Currency: s.currency(),
		Status:   models.PaymentStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	l.Info("payment_intent_created", "order_id", order.ID, "payment_id", pay.ID, "intent_id", intent.ID)
	publish(ctx, s.Events, mykafka.TopicPayments, order.OrderNumber, map[string]any{
		"type":         "payment_intent_created",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"payment_id":   pay.ID,
		"intent_id":    intent.ID,
		"amount":       order.TotalAmount.StringFixed(2),
		"currency":     pay.Currency,
	})

	return &transport.IntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		PaymentID:       pay.ID,
		Amount:          transport.NewMoney(order.TotalAmount),
		PublishableKey:  s.PublishableKey,
	}, nil
}

// Confirm reads the intent from the provider and applies its status locally.
func (s *PaymentService) Confirm(ctx context.Context, caller identity.Caller, intentID string) (*transport.ConfirmResponse, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.FieldError("payment_intent_id", "This field is required.")
	}
	pay, err := s.Repo.GetPaymentByIntent(ctx, intentID)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	if pay.Order == nil {
		return nil, &domain.NotFoundError{What: "order"}
	}
	if !caller.IsStaff() && !caller.Owns(pay.Order.OwnerKind, pay.Order.OwnerKey) {
		return nil, &domain.NotFoundError{What: "payment"}
	}

	intent, err := s.Processor.GetIntent(ctx, intentID)
	if err != nil {
		logging.FromContext(ctx).Warn("processor_error", "intent_id", intentID, "error", err)
		return nil, processorError(err)
	}

	switch intent.Status {
	case payments.IntentSucceeded:
		if err := s.markSucceeded(ctx, pay, intent); err != nil {
			return nil, err
		}
		return &transport.ConfirmResponse{
			Status:      "success",
			Message:     "Payment successful",
			OrderID:     pay.Order.ID,
			OrderNumber: pay.Order.OrderNumber,
		}, nil
	case payments.IntentRequiresPaymentMethod:
		if err := s.markStatus(ctx, pay, models.PaymentStatusFailed, "Payment method failed"); err != nil {
			return nil, err
		}
		return &transport.ConfirmResponse{
			Status:  models.PaymentStatusFailed,
			Message: "Payment failed. Please try another payment method.",
		}, nil
	default:
		status := normalizeIntentStatus(intent.Status)
		if err := s.markStatus(ctx, pay, status, ""); err != nil {
			return nil, err
		}
		return &transport.ConfirmResponse{
			Status:  status,
			Message: "Payment status: " + status,
		}, nil
	}
}

// HandleEvent applies a verified provider webhook. Events for unknown intents are ignored.
func (s *PaymentService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	l := logging.FromContext(ctx).With("svc", "payment.webhook")

	if !s.WebhookConfigured {
		return fmt.Errorf("%w: webhook secret not configured", domain.ErrInvalidSignature)
	}
	ev, err := s.Processor.ParseEvent(payload, signature)
	switch {
	case errors.Is(err, payments.ErrSignature):
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	case errors.Is(err, payments.ErrPayload):
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	case err != nil:
		return err
	}

	switch ev.Type {
	case payments.EventIntentSucceeded, payments.EventIntentFailed, payments.EventIntentCanceled:
	default:
		l.Debug("webhook_ignored", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	pay, err := s.Repo.GetPaymentByIntent(ctx, ev.Intent.ID)
	if repo.IsNotFound(err) {
		l.Warn("webhook_unmatched_intent", "event_id", ev.ID, "type", ev.Type, "intent_id", ev.Intent.ID)
		return nil
	}
	if err != nil {
		return err
	}

	l.Info("webhook_received", "event_id", ev.ID, "type", ev.Type, "payment_id", pay.ID)
	switch ev.Type {
	case payments.EventIntentSucceeded:
		return s.markSucceeded(ctx, pay, &ev.Intent)
	case payments.EventIntentFailed:
		return s.markStatus(ctx, pay, models.PaymentStatusFailed, ev.Intent.LastError)
	default:
		return s.markStatus(ctx, pay, models.PaymentStatusCancelled, "")
	}
}

// markSucceeded marks the payment succeeded and the order paid. A refunded
// payment is left as it is.
func (s *PaymentService) markSucceeded(ctx context.Context, pay *models.Payment, intent *payments.Intent) error {
	var updated, transitioned bool
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		fields := map[string]any{
			"status":        models.PaymentStatusSucceeded,
			"error_message": "",
			"updated_at":    s.clock(),
		}
		if intent.PaymentMethod != "" {
			fields["payment_method"] = intent.PaymentMethod
		}
		if intent.Customer != "" {
			fields["customer_ref"] = intent.Customer
		}
		changed, err := tx.UpdatePaymentUnless(ctx, pay.ID, fields, models.PaymentStatusRefunded)
		if err != nil || !changed {
			return err
		}
		updated = true
		ok, err := tx.MarkOrderPaid(ctx, pay.OrderID, s.clock())
		transitioned = ok
		return err
	})
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if !updated {
		logging.FromContext(ctx).Info("payment_status_kept", "payment_id", pay.ID, "requested", models.PaymentStatusSucceeded)
		return nil
	}
	if !transitioned {
		return nil
	}

	logging.FromContext(ctx).Info("order_paid", "order_id", pay.OrderID, "payment_id", pay.ID)
	ev := map[string]any{
		"type":       "order_paid",
		"order_id":   pay.OrderID,
		"payment_id": pay.ID,
		"intent_id":  pay.IntentID,
		"amount":     pay.Amount.StringFixed(2),
	}
	key := strconv.FormatUint(uint64(pay.OrderID), 10)
	if pay.Order != nil {
		ev["order_number"] = pay.Order.OrderNumber
		key = pay.Order.OrderNumber
	}
	publish(ctx, s.Events, mykafka.TopicPayments, key, ev)
	return nil
}

// markStatus records a non-success status. Succeeded and refunded payments are left untouched.
func (s *PaymentService) markStatus(ctx context.Context, pay *models.Payment, status, errMsg string) error {
	changed, err := s.Repo.UpdatePaymentUnless(ctx, pay.ID, map[string]any{
		"status":        status,
		"error_message": errMsg,
		"updated_at":    s.clock(),
	}, models.PaymentStatusSucceeded, models.PaymentStatusRefunded)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if !changed {
		logging.FromContext(ctx).Info("payment_status_kept", "payment_id", pay.ID, "requested", status)
		return nil
	}

	var kind string
	switch status {
	case models.PaymentStatusFailed:
		kind = "payment_failed"
	case models.PaymentStatusCancelled:
		kind = "payment_cancelled"
	default:
		return nil
	}
	publish(ctx, s.Events, mykafka.TopicPayments, strconv.FormatUint(uint64(pay.OrderID), 10), map[string]any{
		"type":       kind,
		"order_id":   pay.OrderID,
		"payment_id": pay.ID,
		"intent_id":  pay.IntentID,
		"error":      errMsg,
	})
	return nil
}

func (s *PaymentService) MyPayments(ctx context.Context, caller identity.Caller) ([]transport.PaymentView, error) {
	if !caller.Identity.IsUser() {
		return nil, domain.ErrUnauthorized
	}
	items, err := s.Repo.ListPaymentsByOwner(ctx, caller.Identity.OwnerKind(), caller.Identity.OwnerKey())
	if err != nil {
		return nil, err
	}
	out := make([]transport.PaymentView, 0, len(items))
	for i := range items {
		out = append(out, PaymentView(&items[i]))
	}
	return out, nil
}

func normalizeIntentStatus(s string) string {
	if s == payments.IntentCanceled {
		return models.PaymentStatusCancelled
	}
	return s
}

func processorError(err error) error {
	var ue *payments.UserError
	if errors.As(err, &ue) {
		return &domain.ProcessorError{Msg: ue.Msg, Err: ue.Err}
	}
	return fmt.Errorf("payment processor: %w", err)
}

func PaymentView(p *models.Payment) transport.PaymentView {
	return transport.PaymentView{
		ID:              p.ID,
		OrderID:         p.OrderID,
		PaymentIntentID: p.IntentID,
		Amount:          transport.NewMoney(p.Amount),
		Currency:        p.Currency,
		Status:          p.Status,
		PaymentMethod:   p.PaymentMethod,
		ErrorMessage:    p.ErrorMessage,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
