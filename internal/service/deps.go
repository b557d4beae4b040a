package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/es"
	"github.com/Skotchmaster/shopfront/internal/hub"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

// Publisher emits domain events. A nil Publisher disables publishing.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// StockSyncer mirrors stock levels to the search index.
type StockSyncer interface {
	SyncStock(ctx context.Context, levels []es.StockLevel) error
}

// Broadcaster pushes chat frames to live room subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, roomID uint, f hub.Frame) error
}

const publishTimeout = 5 * time.Second

func publish(ctx context.Context, p Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(pctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", event["type"], "error", err)
	}
}

// notFound maps a missing row to domain.ErrNotFound and passes other errors through.
func notFound(err error, what string) error {
	if repo.IsNotFound(err) {
		return &domain.NotFoundError{What: what}
	}
	return err
}
