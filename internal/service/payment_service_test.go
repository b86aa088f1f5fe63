package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/payment/paystack"
	"github.com/stitchline/stitchline-server/internal/queue"
)

const testPaystackSecret = "sk_test_service_secret"

func newPaymentService(t *testing.T, env *serviceTestEnv, baseURL string) *PaymentService {
	t.Helper()
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	return NewPaymentService(env.orders, queueClient, config.PaystackConfig{
		SecretKey:  testPaystackSecret,
		APIBaseURL: baseURL,
		TimeoutMS:  2000,
	})
}

func createPendingOrder(t *testing.T, env *serviceTestEnv, product *models.Product) *models.Order {
	t.Helper()
	order := createProcessingOrder(t, env, product, "M", 1)
	if err := env.orderRepo.UpdateStatus(order.ID, constants.OrderStatusPending, nil); err != nil {
		t.Fatalf("reset status failed: %v", err)
	}
	loaded, err := env.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return loaded
}

func chargeSuccessBody(reference string, amountKobo int64, currency string) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "charge.success",
		"data": {
			"id": 4099260516,
			"reference": %q,
			"status": "success",
			"amount": %d,
			"currency": %q,
			"channel": "card",
			"paid_at": "2026-03-01T12:03:07.000Z"
		}
	}`, reference, amountKobo, currency))
}

func signedWebhook(t *testing.T, svc *PaymentService, body []byte) error {
	t.Helper()
	return svc.HandleWebhook(body, paystack.ComputeWebhookSignature(testPaystackSecret, body))
}

func TestHandleWebhookSettlesPendingOrder(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "webhook-shirt", 5)
	order := createPendingOrder(t, env, product)
	svc := newPaymentService(t, env, "https://api.paystack.invalid")

	body := chargeSuccessBody(order.Reference, order.TotalAmount.Kobo(), "NGN")
	if err := signedWebhook(t, svc, body); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}

	settled, _ := env.orderRepo.GetByID(order.ID)
	if settled.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", settled.Status)
	}
	if settled.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}
	if settled.TransactionID != "4099260516" {
		t.Fatalf("unexpected transaction id: %s", settled.TransactionID)
	}

	// redelivery of the same event is a logged no-op
	if err := signedWebhook(t, svc, body); err != nil {
		t.Fatalf("redelivery should succeed: %v", err)
	}
	reloaded, _ := env.orderRepo.GetByID(order.ID)
	if reloaded.TransactionID != "4099260516" {
		t.Fatalf("redelivery overwrote the transaction: %s", reloaded.TransactionID)
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "badsig-shirt", 5)
	order := createPendingOrder(t, env, product)
	svc := newPaymentService(t, env, "https://api.paystack.invalid")

	body := chargeSuccessBody(order.Reference, order.TotalAmount.Kobo(), "NGN")
	if err := svc.HandleWebhook(body, "deadbeef"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}

	reloaded, _ := env.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("forged webhook must not advance the order, got %s", reloaded.Status)
	}
}

func TestHandleWebhookAmountMismatchParksOrder(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "mismatch-shirt", 5)
	order := createPendingOrder(t, env, product)
	svc := newPaymentService(t, env, "https://api.paystack.invalid")

	body := chargeSuccessBody(order.Reference, order.TotalAmount.Kobo()-100, "NGN")
	if err := signedWebhook(t, svc, body); err != nil {
		t.Fatalf("mismatch must still return 200 to the gateway: %v", err)
	}

	reloaded, _ := env.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusAmountMismatchReview {
		t.Fatalf("expected amount mismatch review, got %s", reloaded.Status)
	}
	if len(reloaded.Notes) == 0 {
		t.Fatalf("expected a review note")
	}
}

func TestHandleWebhookIgnoresUnknownReferenceAndOtherEvents(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "ignore-shirt", 5)
	order := createPendingOrder(t, env, product)
	svc := newPaymentService(t, env, "https://api.paystack.invalid")

	unknown := chargeSuccessBody("SL00000000000000000000", 100, "NGN")
	if err := signedWebhook(t, svc, unknown); err != nil {
		t.Fatalf("unknown reference should be acknowledged: %v", err)
	}

	other := []byte(fmt.Sprintf(`{"event":"transfer.success","data":{"reference":%q,"amount":1}}`, order.Reference))
	if err := signedWebhook(t, svc, other); err != nil {
		t.Fatalf("other events should be acknowledged: %v", err)
	}

	reloaded, _ := env.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("order must stay pending, got %s", reloaded.Status)
	}
}

func verifyGateway(t *testing.T, status string, amountKobo int64, currency string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"status": true,
			"message": "Verification successful",
			"data": {
				"id": 4099260516,
				"status": %q,
				"reference": "any",
				"amount": %d,
				"currency": %q,
				"channel": "card",
				"gateway_response": "Declined"
			}
		}`, status, amountKobo, currency)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVerifyPaymentSettlesSuccessfulCharge(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "verify-shirt", 5)
	order := createPendingOrder(t, env, product)
	gateway := verifyGateway(t, "success", order.TotalAmount.Kobo(), "NGN")
	svc := newPaymentService(t, env, gateway.URL)

	settled, err := svc.VerifyPayment(context.Background(), order.Reference)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if settled.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", settled.Status)
	}
	if settled.PaidAt == nil || settled.TransactionID == "" {
		t.Fatalf("expected payment fields to be recorded")
	}
}

func TestVerifyPaymentSkipsSettledOrders(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "verify-noop-shirt", 5)
	order := createProcessingOrder(t, env, product, "M", 1)
	// an unreachable gateway proves the call is skipped
	svc := newPaymentService(t, env, "https://api.paystack.invalid")

	got, err := svc.VerifyPayment(context.Background(), order.Reference)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected unchanged status, got %s", got.Status)
	}
}

func TestVerifyPaymentFailedChargeParksOrder(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "verify-failed-shirt", 5)
	order := createPendingOrder(t, env, product)
	gateway := verifyGateway(t, "failed", order.TotalAmount.Kobo(), "NGN")
	svc := newPaymentService(t, env, gateway.URL)

	got, err := svc.VerifyPayment(context.Background(), order.Reference)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got.Status != constants.OrderStatusVerificationFailed {
		t.Fatalf("expected verification failed review, got %s", got.Status)
	}
	if len(got.Notes) == 0 {
		t.Fatalf("expected a review note")
	}
}

func TestVerifyPaymentAbandonedChargeStaysPending(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "verify-abandoned-shirt", 5)
	order := createPendingOrder(t, env, product)
	gateway := verifyGateway(t, "abandoned", 0, "NGN")
	svc := newPaymentService(t, env, gateway.URL)

	if _, err := svc.VerifyPayment(context.Background(), order.Reference); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("expected ErrPaymentNotVerified, got: %v", err)
	}
	reloaded, _ := env.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("abandoned charge must leave the order pending, got %s", reloaded.Status)
	}
}

func TestVerifyPaymentUnknownReference(t *testing.T) {
	env := setupServiceTest(t)
	svc := newPaymentService(t, env, "https://api.paystack.invalid")
	if _, err := svc.VerifyPayment(context.Background(), "SL99999999999999999999"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}
