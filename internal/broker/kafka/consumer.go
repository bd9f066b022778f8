package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BearBump/PickupDesk/internal/broker/messages"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return &Consumer{
		r: kafka.NewReader(cfg),
	}
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{r: r}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume hands every message to handler and commits it only after the
// handler succeeded. A handler error stops the loop with the message
// uncommitted, so it is redelivered on restart.
func (c *Consumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}
		if err := handler(msg.Key, msg.Value); err != nil {
			return err
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}

// ConsumePickupChanged decodes pickup.changed events for handler. Payloads
// that do not decode or validate are logged and committed; retrying them
// cannot succeed.
func (c *Consumer) ConsumePickupChanged(ctx context.Context, handler func(ctx context.Context, msg messages.PickupChanged) error) error {
	return c.Consume(ctx, func(key, value []byte) error {
		var msg messages.PickupChanged
		err := json.Unmarshal(value, &msg)
		if err == nil {
			err = msg.Validate()
		}
		if err != nil {
			slog.Warn("skip malformed pickup.changed", "key", string(key), "error", err.Error())
			return nil
		}
		return handler(ctx, msg)
	})
}
