package queue

import (
	"encoding/json"

	"github.com/stitchline/stitchline-server/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail notifies the customer of a status change.
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskOrderAutoComplete completes a processing order in the worker.
	TaskOrderAutoComplete = constants.TaskOrderAutoComplete
)

// OrderStatusEmailPayload is the status notification task body.
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// OrderAutoCompletePayload is the auto-completion task body.
type OrderAutoCompletePayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderStatusEmailTask builds a status notification task.
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewOrderAutoCompleteTask builds an auto-completion task.
func NewOrderAutoCompleteTask(payload OrderAutoCompletePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderAutoComplete, body), nil
}
