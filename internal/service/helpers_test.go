package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/es"
	"github.com/Skotchmaster/shopfront/internal/hub"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/testsupport"
	"github.com/Skotchmaster/shopfront/pkg/identity"
)

type sentEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sentEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := event.(map[string]any)
	p.events = append(p.events, sentEvent{Topic: topic, Key: key, Event: m})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

type recordingStock struct {
	mu     sync.Mutex
	levels []es.StockLevel
}

func (s *recordingStock) SyncStock(_ context.Context, levels []es.StockLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = append(s.levels, levels...)
	return nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	frames map[uint][]hub.Frame
	err    error
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, roomID uint, f hub.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frames == nil {
		b.frames = make(map[uint][]hub.Frame)
	}
	b.frames[roomID] = append(b.frames[roomID], f)
	return b.err
}

func newRepo(t *testing.T) (*repo.GormRepo, *gorm.DB) {
	t.Helper()
	gdb := testsupport.NewDB(t)
	return repo.New(gdb), gdb
}

func guest(token string) identity.Caller {
	return identity.Caller{Identity: identity.Anonymous(token), Session: token}
}

func member(id uint) identity.Caller {
	return identity.Caller{Identity: identity.User(id), Role: "user"}
}

func staff(id uint) identity.Caller {
	return identity.Caller{Identity: identity.User(id), Role: identity.RoleAdmin}
}

func intp(n int) *int { return &n }

func addToCart(t *testing.T, svc *CartService, caller identity.Caller, productID uint, qty int) {
	t.Helper()
	_, err := svc.AddItem(context.Background(), caller, productID, intp(qty))
	require.NoError(t, err)
}
