package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/infra/produce"
	"github.com/appleplayground/media-service/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CleanupConsumer drains the orphan cleanup queue: store objects whose
// metadata row never made it are deleted here after the inline compensating
// delete already failed once.
type CleanupConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
}

func NewCleanupConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository) *CleanupConsumer {
	return &CleanupConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
	}
}

func (c *CleanupConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.OrphanCleanupQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register orphan cleanup consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Cleanup Consumer] Started listening on queue: %s", produce.OrphanCleanupQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Cleanup Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Cleanup Consumer] Channel closed")
					return
				}
				c.handleCleanup(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *CleanupConsumer) handleCleanup(ctx context.Context, msg amqp.Delivery) {
	var payload produce.OrphanCleanupMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Cleanup Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	if payload.StorageKey == "" {
		c.infra.Logger.WarningWithContextf(ctx, "[Cleanup Consumer] Message without storage key, dropping")
		_ = msg.Nack(false, false)
		return
	}

	maxRetries := 3
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = c.infra.Minio.DeleteObject(ctx, payload.StorageKey)
		if err == nil || isNotFound(err) {
			c.infra.Logger.InfoWithContextf(ctx, "[Cleanup Consumer] Removed orphaned object %s (reason: %s)", payload.StorageKey, payload.Reason)
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Cleanup Consumer] Attempt %d/%d failed for %s: %v", attempt, maxRetries, payload.StorageKey, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	// Transient store failure: requeue so the object is retried later
	c.infra.Logger.ErrorWithContextf(ctx, err, "[Cleanup Consumer] Failed after %d attempts, requeueing %s", maxRetries, payload.StorageKey)
	_ = msg.Nack(false, true)
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NoSuchKey")
}
