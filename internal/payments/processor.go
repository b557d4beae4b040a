// Package payments is the boundary to the external payment provider.
package payments

import (
	"context"
	"errors"
)

// Provider intent statuses the coordinator reacts to.
const (
	IntentSucceeded             = "succeeded"
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentCanceled              = "canceled"
)

// Webhook event kinds.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
)

var (
	ErrSignature = errors.New("webhook signature verification failed")
	ErrPayload   = errors.New("webhook payload invalid")
)

type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Description string
	Metadata    map[string]string
}

type Intent struct {
	ID            string
	ClientSecret  string
	Status        string
	PaymentMethod string
	Customer      string
	LastError     string
}

type Event struct {
	ID     string
	Type   string
	Intent Intent
}

// Processor creates and reads payment intents and verifies webhook events.
type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// UserError is a provider rejection with a message safe to return to clients.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string { return e.Msg }

func (e *UserError) Unwrap() error { return e.Err }
