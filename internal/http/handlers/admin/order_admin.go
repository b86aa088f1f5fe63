package admin

import (
	"errors"
	"strconv"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/http/handlers/shared"
	"github.com/stitchline/stitchline-server/internal/http/response"
	"github.com/stitchline/stitchline-server/internal/repository"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders returns order pages with optional filters.
func (h *Handler) ListOrders(c *gin.Context) {
	page := shared.ParsePagination(c)
	filter := repository.OrderFilter{
		Status:    c.Query("status"),
		Email:     c.Query("email"),
		Reference: c.Query("reference"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if userID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}

	orders, total, err := h.OrderService.ListAdminOrders(filter, page)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, shared.BuildPagination(page, total))
}

// GetOrder returns one order with its line items.
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrder(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, order)
}

// ConfirmOrder settles a pending or processing order: the confirmer
// claim elects this request, then the stock deduction and the
// terminal status commit in one transaction. Losing the claim is a
// benign race answered with the order's current state.
func (h *Handler) ConfirmOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor := "admin:" + getAdminUsername(c)

	order, err := h.InventoryService.ProcessOrderCompletion(id, constants.OrderStatusConfirmed, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderAlreadyClaimed):
			// a concurrent actor already settled this order; report
			// whatever state it left behind
			response.Success(c, order)
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOutOfStock):
			respondError(c, response.CodeConflict, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "order confirmation failed", err)
		}
		return
	}
	response.Success(c, order)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus moves an order along the fulfillment path or
// cancels it. Paid terminal statuses are rejected here; they go
// through ConfirmOrder.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	actor := "admin:" + getAdminUsername(c)

	order, err := h.OrderService.UpdateStatus(id, req.Status, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeConflict, "status transition not allowed", nil)
		case errors.Is(err, service.ErrOrderAlreadyClaimed):
			respondError(c, response.CodeConflict, "order changed concurrently, retry", nil)
		default:
			respondError(c, response.CodeInternal, "order update failed", err)
		}
		return
	}
	response.Success(c, order)
}

type appendNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// AppendOrderNote attaches a free-form note to the order trail.
func (h *Handler) AppendOrderNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req appendNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if _, err := h.OrderService.GetOrder(id); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	if err := h.OrderRepo.AppendNote(id, getAdminUsername(c)+": "+req.Note); err != nil {
		respondError(c, response.CodeInternal, "note save failed", err)
		return
	}

	order, err := h.OrderService.GetOrder(id)
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, order)
}
