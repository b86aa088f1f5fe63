package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/payment/paystack"
	"github.com/stitchline/stitchline-server/internal/queue"
)

// autoCompleteDelay gives the webhook burst time to settle before the
// worker tries to complete the order.
const autoCompleteDelay = 30 * time.Second

// PaymentService verifies Paystack transactions and handles webhooks.
// Both paths converge on the same pending-to-processing claim, so a
// verify racing a webhook settles on exactly one winner.
type PaymentService struct {
	orderService *OrderService
	queueClient  *queue.Client
	gateway      *paystack.Config
}

// NewPaymentService creates the payment service.
func NewPaymentService(orderService *OrderService, queueClient *queue.Client, cfg config.PaystackConfig) *PaymentService {
	return &PaymentService{
		orderService: orderService,
		queueClient:  queueClient,
		gateway: &paystack.Config{
			SecretKey:  cfg.SecretKey,
			APIBaseURL: cfg.APIBaseURL,
			Timeout:    time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// VerifyPayment confirms a transaction with Paystack and advances the
// order. Already-advanced orders return as-is, so customers can poll
// the endpoint freely.
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string) (*models.Order, error) {
	order, err := s.orderService.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusPending {
		logger.Infow("payment_verify_noop",
			"reference", reference,
			"status", order.Status)
		return order, nil
	}

	result, err := paystack.VerifyTransaction(ctx, s.gateway, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrTransactionNotFound) {
			return nil, ErrPaymentNotVerified
		}
		logger.Errorw("payment_verify_request_failed", "reference", reference, "error", err)
		return nil, err
	}

	logger.Infow("payment_verify_result",
		"reference", reference,
		"gateway_status", result.Status,
		"amount_kobo", result.AmountKobo,
		"currency", result.Currency)

	switch result.Status {
	case constants.PaystackStatusSuccess:
		return s.settleSuccess(order, result.AmountKobo, result.Currency, result.TransactionID, "verify")
	case constants.PaystackStatusFailed:
		note := fmt.Sprintf("paystack verify reported failure: %s", result.GatewayResponse)
		if err := s.orderService.MarkReview(order.ID, constants.OrderStatusVerificationFailed, note); err != nil {
			if errors.Is(err, ErrOrderAlreadyClaimed) {
				return s.orderService.GetOrder(order.ID)
			}
			return nil, err
		}
		return s.orderService.GetOrder(order.ID)
	default:
		// abandoned or still pending on the gateway side, the customer
		// can retry the charge so the order stays pending
		return nil, ErrPaymentNotVerified
	}
}

// HandleWebhook processes a raw Paystack webhook delivery. The
// signature must match before anything is parsed. Redeliveries for
// orders that already left pending are logged no-ops.
func (s *PaymentService) HandleWebhook(body []byte, signature string) error {
	if err := paystack.VerifyWebhookSignature(s.gateway, body, signature); err != nil {
		logger.Warnw("payment_webhook_bad_signature", "error", err)
		return ErrUnauthorized
	}

	event, err := paystack.ParseWebhookEvent(body)
	if err != nil {
		logger.Warnw("payment_webhook_bad_payload", "error", err)
		return fmt.Errorf("%w: %v", ErrWebhookPayload, err)
	}

	logger.Infow("payment_webhook_received",
		"event", event.Event,
		"reference", event.Reference,
		"amount_kobo", event.AmountKobo)

	if event.Event != constants.PaystackEventChargeSuccess {
		logger.Infow("payment_webhook_ignored_event", "event", event.Event)
		return nil
	}

	order, err := s.orderService.GetByReference(event.Reference)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			logger.Warnw("payment_webhook_unknown_reference", "reference", event.Reference)
			return nil
		}
		return err
	}
	if order.Status != constants.OrderStatusPending {
		logger.Infow("payment_webhook_redelivery_noop",
			"reference", event.Reference,
			"status", order.Status)
		return nil
	}

	_, err = s.settleSuccess(order, event.AmountKobo, event.Currency, event.TransactionID, "webhook")
	if err != nil && !errors.Is(err, ErrAmountMismatch) {
		return err
	}
	return nil
}

// settleSuccess applies a successful charge to a pending order. The
// paid amount must match the order total to the kobo, anything else
// parks the order for manual review instead of shipping a mispriced
// sale.
func (s *PaymentService) settleSuccess(order *models.Order, amountKobo int64, currency, transactionID, source string) (*models.Order, error) {
	if amountKobo != order.TotalAmount.Kobo() || (currency != "" && currency != order.Currency) {
		note := fmt.Sprintf("paid %d kobo %s, expected %d kobo %s (source %s)",
			amountKobo, currency, order.TotalAmount.Kobo(), order.Currency, source)
		logger.Warnw("payment_amount_mismatch",
			"order_id", order.ID,
			"reference", order.Reference,
			"paid_kobo", amountKobo,
			"expected_kobo", order.TotalAmount.Kobo(),
			"source", source)
		if err := s.orderService.MarkReview(order.ID, constants.OrderStatusAmountMismatchReview, note); err != nil && !errors.Is(err, ErrOrderAlreadyClaimed) {
			return nil, err
		}
		return nil, ErrAmountMismatch
	}

	claimed, err := s.orderService.MarkProcessing(order.ID, order.Reference, transactionID)
	if err != nil {
		return nil, err
	}
	if claimed == 0 {
		// another verify or webhook won the claim
		return s.orderService.GetOrder(order.ID)
	}

	logger.Infow("payment_settled",
		"order_id", order.ID,
		"reference", order.Reference,
		"source", source)

	s.enqueueFollowups(order.ID)
	return s.orderService.GetOrder(order.ID)
}

// enqueueFollowups is best effort: a queue outage must never undo a
// settled payment.
func (s *PaymentService) enqueueFollowups(orderID uint) {
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: orderID,
		Status:  constants.OrderStatusProcessing,
	}); err != nil {
		logger.Warnw("payment_status_email_enqueue_failed", "order_id", orderID, "error", err)
	}
	if err := s.queueClient.EnqueueOrderAutoComplete(queue.OrderAutoCompletePayload{
		OrderID: orderID,
	}, autoCompleteDelay); err != nil {
		logger.Warnw("payment_auto_complete_enqueue_failed", "order_id", orderID, "error", err)
	}
}
