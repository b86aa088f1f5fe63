package public

import (
	"errors"

	"github.com/stitchline/stitchline-server/internal/http/response"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError maps a service sentinel to a response code.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrVariationNotFound, code: response.CodeBadRequest, msg: "variation not found"},
	{target: service.ErrSizeRequired, code: response.CodeBadRequest, msg: "size required"},
	{target: service.ErrSizeNotAllowed, code: response.CodeBadRequest, msg: "size not allowed for this product"},
	{target: service.ErrSizeNotFound, code: response.CodeBadRequest, msg: "size not found"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrOutOfStock, code: response.CodeConflict, msg: "insufficient stock"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrProductNotFound, code: response.CodeConflict, msg: "a cart item is no longer available"},
	{target: service.ErrProductInactive, code: response.CodeConflict, msg: "a cart item is no longer available"},
	{target: service.ErrVariationNotFound, code: response.CodeConflict, msg: "a cart item is no longer available"},
	{target: service.ErrSizeNotFound, code: response.CodeConflict, msg: "a cart item is no longer available"},
	{target: service.ErrSizeRequired, code: response.CodeBadRequest, msg: "size required"},
	{target: service.ErrSizeNotAllowed, code: response.CodeBadRequest, msg: "size not allowed for this product"},
	{target: service.ErrOutOfStock, code: response.CodeConflict, msg: "insufficient stock"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrInvalidCredentials, code: response.CodeBadRequest, msg: "email required"},
}

var orderLookupErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeConflict, msg: "order cannot be cancelled"},
	{target: service.ErrOrderAlreadyClaimed, code: response.CodeConflict, msg: "order changed, reload and retry"},
}

var paymentVerifyErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrPaymentNotVerified, code: response.CodeConflict, msg: "payment not verified yet"},
	{target: service.ErrAmountMismatch, code: response.CodeConflict, msg: "paid amount mismatch, order held for review"},
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid credentials"},
	{target: service.ErrAccountDisabled, code: response.CodeForbidden, msg: "account disabled"},
	{target: service.ErrEmailTaken, code: response.CodeConflict, msg: "email already registered"},
	{target: service.ErrTooManyAttempts, code: response.CodeTooManyRequests, msg: "too many attempts, try again later"},
}
