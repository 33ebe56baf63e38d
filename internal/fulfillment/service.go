package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/licenca-shop/licenca/internal/kafka"
	"github.com/licenca-shop/licenca/internal/orders"
	"github.com/licenca-shop/licenca/internal/redisx"
)

type OrderStore interface {
	MarkFulfilled(ctx context.Context, orderID string) (bool, error)
	GetStatus(ctx context.Context, orderID string) (orders.Status, error)
}

// Service finalizes paid orders: it consumes order.created, marks the order
// COMPLETED (the keys were assigned at checkout; this is the delivery step)
// and publishes order.finalized.
type Service struct {
	Store       OrderStore
	Redis       *redis.Client
	Producer    *kafkax.Producer
	Log         *logrus.Logger
	ServiceName string
}

func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// malformed message, commit and move on
		s.Log.WithError(err).Warn("skipping undecodable message")
		return nil
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "fulfillment", env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		s.Log.WithError(err).WithField("event_id", env.EventID).Warn("skipping bad payload")
		return nil
	}

	done, err := s.Store.MarkFulfilled(ctx, p.OrderID)
	if err != nil {
		return err // transient; do not commit, message redelivers
	}
	if !done {
		// already fulfilled (or failed): idempotent replay
		if st, err := s.Store.GetStatus(ctx, p.OrderID); err == nil && st == orders.StatusCreated {
			s.Log.WithField("order_id", p.OrderID).Warn("order not transitioned and not fulfilled")
		}
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	_ = s.Redis.Set(ctx, statusKey,
		fmt.Sprintf(`{"status":%q}`, orders.StatusCompleted), redisx.TTLStatusCache).Err()

	s.publishFinalized(p.OrderID, env.TraceID)
	s.Log.WithFields(logrus.Fields{
		"order_id":     p.OrderID,
		"order_number": p.OrderNumber,
		"tenant":       p.TenantID,
	}).Info("order fulfilled")
	return nil
}

func (s *Service) publishFinalized(orderID, trace string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderFinalized,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.OrderFinalizedPayload{
			OrderID:     orderID,
			FinalStatus: string(orders.StatusCompleted),
		}),
	}
	s.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderFinalized)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
