package service

import "errors"

// Service-level sentinel errors. Handlers map these to HTTP status
// codes, so every branch that fails a business rule returns one of
// them rather than an ad-hoc error.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductInactive     = errors.New("product inactive")
	ErrProductKindInvalid  = errors.New("unknown product kind")
	ErrPriceInvalid        = errors.New("invalid price")
	ErrVariationsInvalid   = errors.New("invalid variation set")
	ErrVariationNotFound   = errors.New("variation not found")
	ErrSizeNotFound        = errors.New("size not found")
	ErrSizeRequired        = errors.New("size required for this product kind")
	ErrSizeNotAllowed      = errors.New("size not allowed for this product kind")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrOutOfStock          = errors.New("insufficient stock")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrCartEmpty           = errors.New("cart is empty")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderStatusInvalid  = errors.New("order status transition not allowed")
	ErrOrderAlreadyClaimed = errors.New("order already claimed by another process")
	ErrOrderUpdateFailed   = errors.New("order update failed")
	ErrAmountMismatch      = errors.New("paid amount does not match order total")
	ErrWebhookPayload      = errors.New("invalid webhook payload")
	ErrPaymentNotVerified  = errors.New("payment not verified")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrTooManyAttempts     = errors.New("too many attempts")
)
