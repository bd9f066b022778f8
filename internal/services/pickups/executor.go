package pickups

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BearBump/PickupDesk/internal/broker/messages"
	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
)

// Executor performs the commit step of a confirmed change, standing in for
// the backend round trip. It must not touch the store.
type Executor interface {
	Execute(ctx context.Context, ch models.PendingChange) error
}

// SimulatedExecutor resolves every change after a fixed delay.
type SimulatedExecutor struct {
	Delay time.Duration
}

func (e SimulatedExecutor) Execute(ctx context.Context, _ models.PendingChange) error {
	if e.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(e.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// PublishingExecutor commits a change by publishing it as a pickup.changed event.
type PublishingExecutor struct {
	producer Producer
	now      func() time.Time
}

func NewPublishingExecutor(p Producer) *PublishingExecutor {
	return &PublishingExecutor{producer: p, now: func() time.Time { return time.Now().UTC() }}
}

func (e *PublishingExecutor) Execute(ctx context.Context, ch models.PendingChange) error {
	msg := messages.PickupChanged{
		PickupID:    ch.PickupID,
		Kind:        string(ch.Kind),
		RequestedAt: e.now(),
	}
	switch ch.Kind {
	case models.ChangeStatus:
		msg.Status = ch.TargetStatus.String()
	case models.ChangeCarrier:
		if ch.Carrier.IsAssigned() {
			name := ch.Carrier.Name()
			msg.Carrier = &name
		}
	default:
		return errors.Wrapf(ErrUnknownKind, "publish %q", ch.Kind)
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal pickup changed")
	}
	return e.producer.Publish(ctx, []byte(fmt.Sprintf("%d", ch.PickupID)), b)
}
