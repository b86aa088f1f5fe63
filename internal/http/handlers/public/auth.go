package public

import (
	"github.com/stitchline/stitchline-server/internal/http/handlers/shared"
	"github.com/stitchline/stitchline-server/internal/http/response"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a storefront account.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	user, err := h.AuthService.RegisterUser(req.Email, req.Password, req.Name)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "registration failed")
		return
	}
	response.Success(c, gin.H{"user": user})
}

// Login authenticates a storefront account and merges any guest cart
// into it.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	user, token, expiresAt, err := h.AuthService.UserLogin(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "login failed")
		return
	}

	if sessionID := c.GetHeader(cartSessionHeader); sessionID != "" {
		if err := h.CartService.MergeGuestCart(sessionID, user.ID); err != nil {
			shared.RequestLog(c).Warnw("guest_cart_merge_failed", "user_id", user.ID, "error", err)
		}
	}

	response.Success(c, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt,
	})
}
