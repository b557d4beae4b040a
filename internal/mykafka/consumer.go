package mykafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type Consumer struct {
	r *kafka.Reader
}

// NewConsumer joins groupID on topic, starting from the newest offset for new groups.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{r: kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})}
}

// Run reads until ctx is cancelled. Handler errors are logged and the message is skipped.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, kafka.Message) error) error {
	l := logging.FromContext(ctx).With("component", "kafka.consumer", "topic", c.r.Config().Topic)
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			l.Error("kafka_read_error", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		if err := handle(ctx, m); err != nil {
			l.Warn("kafka_handle_error", "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}
