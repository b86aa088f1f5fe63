package public

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/payment/paystack"
	"github.com/stitchline/stitchline-server/internal/provider"
	"github.com/stitchline/stitchline-server/internal/queue"
	"github.com/stitchline/stitchline-server/internal/repository"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const webhookTestSecret = "sk_test_webhook_secret"

func setupWebhookHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:public_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderService := service.NewOrderService(orderRepo, productRepo, cartRepo, config.OrderConfig{Currency: "NGN"})
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	paymentService := service.NewPaymentService(orderService, queueClient, config.PaystackConfig{
		SecretKey:  webhookTestSecret,
		APIBaseURL: "https://api.paystack.invalid",
		TimeoutMS:  2000,
	})

	return &Handler{Container: &provider.Container{PaymentService: paymentService}}, db
}

func createPendingOrder(t *testing.T, db *gorm.DB, reference string) *models.Order {
	t.Helper()
	order := &models.Order{
		Reference:   reference,
		Email:       "buyer@example.com",
		IsGuest:     true,
		Status:      constants.OrderStatusPending,
		Subtotal:    models.NewMoneyFromFloat(18500),
		TotalAmount: models.NewMoneyFromFloat(18500),
		Currency:    "NGN",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func postWebhook(t *testing.T, h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	c.Request = req
	h.PaystackWebhook(c)
	return w
}

func TestPaystackWebhookRejectsBadSignature(t *testing.T) {
	h, db := setupWebhookHandler(t)
	createPendingOrder(t, db, "SLWB0001")

	body := []byte(`{"event":"charge.success","data":{"reference":"SLWB0001","amount":1850000,"currency":"NGN"}}`)
	w := postWebhook(t, h, body, "deadbeef")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "unauthorized" {
		t.Fatalf("unexpected body: %q", got)
	}

	w = postWebhook(t, h, body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing signature, got %d", w.Code)
	}
}

func TestPaystackWebhookSettlesOrder(t *testing.T) {
	h, db := setupWebhookHandler(t)
	order := createPendingOrder(t, db, "SLWB0002")

	body := []byte(`{"event":"charge.success","data":{"id":12345,"reference":"SLWB0002","amount":1850000,"currency":"NGN","status":"success"}}`)
	w := postWebhook(t, h, body, paystack.ComputeWebhookSignature(webhookTestSecret, body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := strings.TrimSpace(w.Body.String()); got != "ok" {
		t.Fatalf("unexpected body: %q", got)
	}

	var settled models.Order
	if err := db.First(&settled, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if settled.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", settled.Status)
	}
}

func TestPaystackWebhookBadPayloadIsNotUnauthorized(t *testing.T) {
	h, _ := setupWebhookHandler(t)

	// a correctly signed body that is not a webhook event
	body := []byte(`{"event":`)
	w := postWebhook(t, h, body, paystack.ComputeWebhookSignature(webhookTestSecret, body))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparseable payload, got %d", w.Code)
	}

	body = []byte(`{"data":{"reference":"SLWB0009"}}`)
	w = postWebhook(t, h, body, paystack.ComputeWebhookSignature(webhookTestSecret, body))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing event type, got %d", w.Code)
	}
}

func TestPaystackWebhookAcknowledgesBusinessNoops(t *testing.T) {
	h, _ := setupWebhookHandler(t)

	// unknown reference must not trigger a redelivery loop
	body := []byte(`{"event":"charge.success","data":{"reference":"SL-UNKNOWN","amount":100,"currency":"NGN"}}`)
	w := postWebhook(t, h, body, paystack.ComputeWebhookSignature(webhookTestSecret, body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown reference, got %d", w.Code)
	}
}
