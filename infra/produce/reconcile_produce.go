package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	CounterReconcileQueue      = "media.counter.reconcile"
	CounterReconcileRoutingKey = "media.counter.reconcile"
)

// CounterReconcileMessage asks the consumer to recount a user's follow edges
// and overwrite the denormalized counters. Published when one of the two
// deltas of a follow/unfollow failed, leaving a known transient undercount.
type CounterReconcileMessage struct {
	UserID    string `json:"user_id"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// ReconcileService handles publishing counter reconciliation messages
type ReconcileService struct {
	channel *amqp.Channel
}

func InitReconcileService(channel *amqp.Channel) *ReconcileService {
	service := &ReconcileService{
		channel: channel,
	}

	_, err := channel.QueueDeclare(
		CounterReconcileQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare Counter Reconcile queue: " + err.Error())
	}

	err = channel.QueueBind(
		CounterReconcileQueue,
		CounterReconcileRoutingKey,
		MediaExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Counter Reconcile queue: " + err.Error())
	}

	return service
}

// PublishCounterReconcile publishes a counter reconciliation message
func (s *ReconcileService) PublishCounterReconcile(ctx context.Context, msg CounterReconcileMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		MediaExchange,
		CounterReconcileRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
