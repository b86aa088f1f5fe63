package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/stitchline/stitchline-server/internal/http/handlers/shared"
	"github.com/stitchline/stitchline-server/internal/http/response"
	"github.com/stitchline/stitchline-server/internal/payment/paystack"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
)

// VerifyPayment confirms a Paystack charge for an order reference.
// Customers hit this after being redirected back from the gateway.
func (h *Handler) VerifyPayment(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		respondError(c, response.CodeBadRequest, "reference is required", nil)
		return
	}
	order, err := h.PaymentService.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		respondWithMappedError(c, err, paymentVerifyErrorRules, response.CodeInternal, "payment verification failed")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// PaystackWebhook receives gateway notifications. Paystack expects a
// 200 on anything it should not redeliver, so business-level no-ops
// still answer OK. Bad signatures get 401, unparseable payloads 400,
// infrastructure failures 500 so the gateway retries them.
func (h *Handler) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		shared.RequestLog(c).Warnw("payment_webhook_body_read_failed", "error", err)
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	signature := c.GetHeader(paystack.SignatureHeader)
	if err := h.PaymentService.HandleWebhook(body, signature); err != nil {
		shared.RequestLog(c).Warnw("payment_webhook_rejected", "error", err)
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			c.String(http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, service.ErrWebhookPayload):
			c.String(http.StatusBadRequest, "bad request")
		default:
			c.String(http.StatusInternalServerError, "error")
		}
		return
	}
	c.String(http.StatusOK, "ok")
}
