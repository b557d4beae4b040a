package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyRoomMembers(t *testing.T) {
	h := New(4)
	a := h.Join(1)
	b := h.Join(1)
	other := h.Join(2)
	defer a.Close()
	defer b.Close()
	defer other.Close()

	n := h.Publish(1, Frame{Type: FrameMessage, Message: "hi"})
	assert.Equal(t, 2, n)

	assert.Equal(t, "hi", (<-a.C).Message)
	assert.Equal(t, "hi", (<-b.C).Message)
	select {
	case f := <-other.C:
		t.Fatalf("unexpected frame in room 2: %+v", f)
	default:
	}
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := New(1)
	s := h.Join(1)
	defer s.Close()

	assert.Equal(t, 1, h.Publish(1, Frame{Message: "first"}))
	assert.Equal(t, 0, h.Publish(1, Frame{Message: "second"}))
	assert.Equal(t, "first", (<-s.C).Message)
}

func TestHub_CloseLeavesAndClosesChannel(t *testing.T) {
	h := New(1)
	var joins, leaves []int
	h.OnJoin = func(_ uint, n int) { joins = append(joins, n) }
	h.OnLeave = func(_ uint, n int) { leaves = append(leaves, n) }

	a := h.Join(9)
	b := h.Join(9)
	assert.Equal(t, 2, h.Members(9))

	a.Close()
	a.Close()
	_, open := <-a.C
	assert.False(t, open)
	b.Close()

	assert.Equal(t, 0, h.Members(9))
	assert.Equal(t, []int{1, 2}, joins)
	assert.Equal(t, []int{1, 0}, leaves)
	assert.Equal(t, 0, h.Publish(9, Frame{}))
}

func TestHub_ConcurrentPublishAndLeave(t *testing.T) {
	h := New(8)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		s := h.Join(3)
		go func() {
			defer wg.Done()
			h.Publish(3, Frame{Message: "x"})
		}()
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Members(3))
}

type capturePublisher struct {
	topic, key string
	event      any
}

func (c *capturePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	c.topic, c.key, c.event = topic, key, event
	return nil
}

func TestRelay_RoundTrip(t *testing.T) {
	h := New(1)
	sub := h.Join(5)
	defer sub.Close()

	pub := &capturePublisher{}
	r := &Relay{Hub: h, Producer: pub, Topic: "chat_events"}

	require.NoError(t, r.Broadcast(context.Background(), 5, Frame{Type: FrameMessage, Message: "relayed"}))
	assert.Equal(t, "chat_events", pub.topic)
	assert.Equal(t, "5", pub.key)

	raw, err := json.Marshal(pub.event)
	require.NoError(t, err)
	require.NoError(t, r.Handle(context.Background(), kafka.Message{Value: raw}))
	assert.Equal(t, "relayed", (<-sub.C).Message)

	assert.Error(t, r.Handle(context.Background(), kafka.Message{Value: []byte("{}")}))
}
