// Package paymentstest provides an in-memory payments.Processor.
package paymentstest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Skotchmaster/shopfront/internal/payments"
)

// ValidSignature is the only signature Fake.ParseEvent accepts.
const ValidSignature = "valid-signature"

type Fake struct {
	mu      sync.Mutex
	seq     int
	intents map[string]payments.Intent

	Requests  []payments.IntentRequest
	CreateErr error
	GetErr    error
}

func New() *Fake {
	return &Fake{intents: make(map[string]payments.Intent)}
}

func (f *Fake) CreateIntent(_ context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.seq++
	f.Requests = append(f.Requests, req)
	in := payments.Intent{
		ID:           fmt.Sprintf("pi_fake_%d", f.seq),
		ClientSecret: fmt.Sprintf("pi_fake_%d_secret", f.seq),
		Status:       payments.IntentRequiresPaymentMethod,
	}
	f.intents[in.ID] = in
	return &in, nil
}

func (f *Fake) GetIntent(_ context.Context, id string) (*payments.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	in, ok := f.intents[id]
	if !ok {
		return nil, &payments.UserError{Msg: "No such payment_intent: " + id}
	}
	return &in, nil
}

// SetIntent overrides the provider-side state of an intent.
func (f *Fake) SetIntent(in payments.Intent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[in.ID] = in
}

type fakeEvent struct {
	Type   string          `json:"type"`
	Intent payments.Intent `json:"intent"`
}

func (f *Fake) ParseEvent(payload []byte, signature string) (*payments.Event, error) {
	if signature != ValidSignature {
		return nil, payments.ErrSignature
	}
	var ev fakeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrPayload, err)
	}
	return &payments.Event{Type: ev.Type, Intent: ev.Intent}, nil
}

// EventPayload builds a payload that ParseEvent understands.
func EventPayload(kind string, in payments.Intent) []byte {
	b, _ := json.Marshal(fakeEvent{Type: kind, Intent: in})
	return b
}
