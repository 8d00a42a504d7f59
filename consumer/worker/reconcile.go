package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/infra/produce"
	"github.com/appleplayground/media-service/repository"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ReconcileConsumer recounts a user's follow edges and overwrites both
// denormalized counters. The edge table is the source of truth; this worker
// repairs any drift a failed inline delta left behind.
type ReconcileConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
}

func NewReconcileConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository) *ReconcileConsumer {
	return &ReconcileConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
	}
}

func (c *ReconcileConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.CounterReconcileQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register counter reconcile consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Reconcile Consumer] Started listening on queue: %s", produce.CounterReconcileQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Reconcile Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Reconcile Consumer] Channel closed")
					return
				}
				c.handleReconcile(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *ReconcileConsumer) handleReconcile(ctx context.Context, msg amqp.Delivery) {
	var payload produce.CounterReconcileMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile Consumer] Invalid user ID: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	maxRetries := 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = c.reconcile(ctx, userID)
		if err == nil {
			c.infra.Logger.InfoWithContextf(ctx, "[Reconcile Consumer] Reconciled counters for user %s (reason: %s)", userID, payload.Reason)
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile Consumer] Attempt %d/%d failed for user %s: %v", attempt, maxRetries, userID, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile Consumer] Failed after %d attempts, requeueing user %s", maxRetries, userID)
	_ = msg.Nack(false, true)
}

func (c *ReconcileConsumer) reconcile(ctx context.Context, userID uuid.UUID) error {
	followers, err := c.repository.FollowRepo.CountFollowers(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count followers: %w", err)
	}

	following, err := c.repository.FollowRepo.CountFollowing(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count following: %w", err)
	}

	if err := c.repository.UserRepo.SetFollowCounts(ctx, userID, followers, following); err != nil {
		return fmt.Errorf("failed to overwrite counters: %w", err)
	}

	return nil
}
