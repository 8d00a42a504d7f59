package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MediaExchange = "media.exchange"

	OrphanCleanupQueue      = "media.cleanup"
	OrphanCleanupRoutingKey = "media.cleanup"
)

// OrphanCleanupMessage asks the consumer to delete a store object that lost
// its metadata row (metadata persist failed and the inline compensating
// delete failed too). The object key is all the worker needs.
type OrphanCleanupMessage struct {
	StorageKey string `json:"storage_key"`
	OwnerID    string `json:"owner_id"`
	Reason     string `json:"reason"`
	Timestamp  int64  `json:"timestamp"`
}

// CleanupService handles publishing orphan cleanup messages
type CleanupService struct {
	channel *amqp.Channel
}

func InitCleanupService(channel *amqp.Channel) *CleanupService {
	service := &CleanupService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		MediaExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Media exchange: " + err.Error())
	}

	_, err = channel.QueueDeclare(
		OrphanCleanupQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare Orphan Cleanup queue: " + err.Error())
	}

	err = channel.QueueBind(
		OrphanCleanupQueue,
		OrphanCleanupRoutingKey,
		MediaExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Orphan Cleanup queue: " + err.Error())
	}

	return service
}

// PublishOrphanCleanup publishes an orphan cleanup message to the queue
func (s *CleanupService) PublishOrphanCleanup(ctx context.Context, msg OrphanCleanupMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		MediaExchange,
		OrphanCleanupRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
