package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/provider"
	"github.com/stitchline/stitchline-server/internal/queue"
	"github.com/stitchline/stitchline-server/internal/repository"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{}, &models.ProductVariation{}, &models.VariationSize{},
		&models.CartItem{}, &models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	container := &provider.Container{
		QueueClient:      queueClient,
		OrderRepo:        orderRepo,
		ProductRepo:      productRepo,
		CartRepo:         cartRepo,
		InventoryService: service.NewInventoryService(orderRepo, productRepo, cartRepo, queueClient),
	}
	return NewConsumer(container), db
}

func seedPaidOrder(t *testing.T, db *gorm.DB, stock, quantity int) *models.Order {
	t.Helper()
	product := &models.Product{
		Kind:   constants.ProductKindClothing,
		Name:   "Lagos Linen Shirt",
		Slug:   fmt.Sprintf("worker-shirt-%d", time.Now().UnixNano()),
		Price:  models.NewMoneyFromFloat(18500),
		Active: true,
		Variations: []models.ProductVariation{
			{VariationIndex: 1, Color: "white", Sizes: []models.VariationSize{{Label: "M", Stock: stock}}},
		},
		TotalStock: stock,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	order := &models.Order{
		Reference:   fmt.Sprintf("SLWK%d", time.Now().UnixNano()),
		Email:       "buyer@example.com",
		IsGuest:     true,
		Status:      constants.OrderStatusProcessing,
		Subtotal:    product.Price.MulInt(int64(quantity)),
		TotalAmount: product.Price.MulInt(int64(quantity)),
		Currency:    "NGN",
		Items: []models.OrderItem{
			{
				ProductID:      product.ID,
				ProductKind:    product.Kind,
				NameSnapshot:   product.Name,
				VariationIndex: 1,
				Size:           "M",
				Quantity:       quantity,
				UnitPrice:      product.Price,
				LineTotal:      product.Price.MulInt(int64(quantity)),
			},
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	return order
}

func autoCompleteTask(t *testing.T, orderID uint) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(queue.OrderAutoCompletePayload{OrderID: orderID})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskOrderAutoComplete, payload)
}

func TestHandleOrderAutoCompleteCompletesOrder(t *testing.T) {
	consumer, db := setupConsumer(t)
	order := seedPaidOrder(t, db, 5, 2)

	if err := consumer.handleOrderAutoComplete(context.Background(), autoCompleteTask(t, order.ID)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	var completed models.Order
	if err := db.First(&completed, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if completed.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if completed.ConfirmedBy != constants.ActorSystemWorker {
		t.Fatalf("unexpected actor: %s", completed.ConfirmedBy)
	}

	var size models.VariationSize
	if err := db.Where("label = ?", "M").First(&size).Error; err != nil {
		t.Fatalf("reload size failed: %v", err)
	}
	if size.Stock != 3 {
		t.Fatalf("expected stock 3 after deduction, got %d", size.Stock)
	}
}

func TestHandleOrderAutoCompleteSkipsClaimedOrder(t *testing.T) {
	consumer, db := setupConsumer(t)
	order := seedPaidOrder(t, db, 5, 1)

	if _, err := consumer.InventoryService.ProcessOrderCompletion(order.ID, constants.OrderStatusConfirmed, "admin:jane"); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	// the admin won the claim, the queued task must not retry
	if err := consumer.handleOrderAutoComplete(context.Background(), autoCompleteTask(t, order.ID)); err != nil {
		t.Fatalf("expected claimed order to be skipped: %v", err)
	}

	var size models.VariationSize
	if err := db.Where("label = ?", "M").First(&size).Error; err != nil {
		t.Fatalf("reload size failed: %v", err)
	}
	if size.Stock != 4 {
		t.Fatalf("stock must be deducted exactly once, got %d", size.Stock)
	}
}

func TestHandleOrderAutoCompleteSwallowsBusinessFailures(t *testing.T) {
	consumer, db := setupConsumer(t)

	if err := consumer.handleOrderAutoComplete(context.Background(), autoCompleteTask(t, 424242)); err != nil {
		t.Fatalf("missing order must not retry: %v", err)
	}
	if err := consumer.handleOrderAutoComplete(context.Background(), autoCompleteTask(t, 0)); err != nil {
		t.Fatalf("zero order id must not retry: %v", err)
	}

	order := seedPaidOrder(t, db, 1, 3)
	if err := consumer.handleOrderAutoComplete(context.Background(), autoCompleteTask(t, order.ID)); err != nil {
		t.Fatalf("out of stock must not retry: %v", err)
	}
	var parked models.Order
	if err := db.First(&parked, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if parked.Status != constants.OrderStatusInventoryFailureReview {
		t.Fatalf("expected inventory review, got %s", parked.Status)
	}
}

func TestHandleOrderAutoCompleteBadPayload(t *testing.T) {
	consumer, _ := setupConsumer(t)
	task := asynq.NewTask(queue.TaskOrderAutoComplete, []byte("not json"))
	if err := consumer.handleOrderAutoComplete(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
