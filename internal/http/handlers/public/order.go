package public

import (
	"strconv"

	"github.com/stitchline/stitchline-server/internal/http/handlers/shared"
	"github.com/stitchline/stitchline-server/internal/http/response"
	"github.com/stitchline/stitchline-server/internal/repository"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Email         string `json:"email"`
	ShippingName  string `json:"shipping_name" binding:"required"`
	ShippingPhone string `json:"shipping_phone"`
	ShippingAddr  string `json:"shipping_address" binding:"required"`
}

// Checkout turns the cart into a pending order. Guests must supply an
// email; account holders default to their account email.
func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	owner := cartOwner(c)
	email := req.Email
	if owner.UserID != 0 && email == "" {
		user, err := h.UserRepo.GetByID(owner.UserID)
		if err != nil || user == nil {
			respondError(c, response.CodeUnauthorized, "unauthorized", err)
			return
		}
		email = user.Email
	}

	order, err := h.OrderService.Checkout(service.CheckoutInput{
		UserID:        owner.UserID,
		SessionID:     owner.SessionID,
		Email:         email,
		ShippingName:  req.ShippingName,
		ShippingPhone: req.ShippingPhone,
		ShippingAddr:  req.ShippingAddr,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// ListMyOrders returns the authenticated user's orders.
func (h *Handler) ListMyOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page := shared.ParsePagination(c)
	filter := repository.OrderFilter{
		Status:    c.Query("status"),
		Reference: c.Query("reference"),
	}
	orders, total, err := h.OrderService.ListUserOrders(userID, filter, page)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list orders", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"orders": orders}, shared.BuildPagination(page, total))
}

// GetMyOrder returns one of the authenticated user's orders.
func (h *Handler) GetMyOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, err := h.OrderService.GetUserOrder(uint(orderID), userID)
	if err != nil {
		respondWithMappedError(c, err, orderLookupErrorRules, response.CodeInternal, "failed to load order")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// LookupGuestOrder returns a guest order by reference plus the email
// used at checkout.
func (h *Handler) LookupGuestOrder(c *gin.Context) {
	reference := c.Param("reference")
	email := c.Query("email")
	if reference == "" || email == "" {
		respondError(c, response.CodeBadRequest, "reference and email are required", nil)
		return
	}
	order, err := h.OrderService.GetGuestOrder(reference, email)
	if err != nil {
		respondWithMappedError(c, err, orderLookupErrorRules, response.CodeInternal, "failed to load order")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// CancelMyOrder cancels an order still awaiting payment or deduction.
func (h *Handler) CancelMyOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	if _, err := h.OrderService.GetUserOrder(uint(orderID), userID); err != nil {
		respondWithMappedError(c, err, orderLookupErrorRules, response.CodeInternal, "failed to load order")
		return
	}
	order, err := h.OrderService.Cancel(uint(orderID), "user")
	if err != nil {
		respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "failed to cancel order")
		return
	}
	response.Success(c, gin.H{"order": order})
}
