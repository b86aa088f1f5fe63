package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/provider"
	"github.com/stitchline/stitchline-server/internal/queue"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles queued order tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates a consumer over the container.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{Container: c}
}

// Register binds task handlers to the mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskOrderAutoComplete, c.handleOrderAutoComplete)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_status_email_skip_no_service", "order_id", payload.OrderID)
		return nil
	}
	if err := c.EmailService.SendOrderStatusEmail(payload.OrderID, payload.Status); err != nil {
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", payload.OrderID,
			"status", payload.Status,
			"error", err)
		return err
	}
	return nil
}

// handleOrderAutoComplete runs the inventory deduction for a paid
// order. The claim inside ProcessOrderCompletion makes redeliveries
// and races with an admin confirm safe, so claim losses are not
// retried. The engine enqueues the status email itself after the
// deduction commits.
func (c *Consumer) handleOrderAutoComplete(_ context.Context, task *asynq.Task) error {
	var payload queue.OrderAutoCompletePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_auto_complete_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		return nil
	}

	_, err := c.InventoryService.ProcessOrderCompletion(payload.OrderID, constants.OrderStatusCompleted, constants.ActorSystemWorker)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderAlreadyClaimed):
			logger.Debugw("worker_order_auto_complete_skip_claimed", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_auto_complete_skip_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOutOfStock):
			// parked in review by the inventory service, retrying
			// cannot help until someone restocks
			logger.Warnw("worker_order_auto_complete_inventory_failure", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_auto_complete_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}
