package public

import (
	"strconv"

	"github.com/stitchline/stitchline-server/internal/http/response"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCart lists the caller's cart.
func (h *Handler) GetCart(c *gin.Context) {
	owner := cartOwner(c)
	items, err := h.CartService.List(owner)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load cart", err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

// AddCartItem adds a selection to the cart.
func (h *Handler) AddCartItem(c *gin.Context) {
	var req service.AddItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	owner := cartOwner(c)
	item, err := h.CartService.AddItem(owner, req)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to add cart item")
		return
	}
	response.Success(c, gin.H{"item": item})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// UpdateCartItem changes a line quantity.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return
	}
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	owner := cartOwner(c)
	item, err := h.CartService.UpdateQuantity(owner, uint(itemID), req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to update cart item")
		return
	}
	response.Success(c, gin.H{"item": item})
}

// RemoveCartItem deletes a line.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return
	}
	owner := cartOwner(c)
	if err := h.CartService.RemoveItem(owner, uint(itemID)); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to remove cart item")
		return
	}
	response.Success(c, nil)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(c *gin.Context) {
	owner := cartOwner(c)
	if err := h.CartService.Clear(owner); err != nil {
		respondError(c, response.CodeInternal, "failed to clear cart", err)
		return
	}
	response.Success(c, nil)
}
