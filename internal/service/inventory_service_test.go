package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/models"
)

func TestProcessOrderCompletionDeductsStock(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "deduct-shirt", 5)
	order := createProcessingOrder(t, env, product, "M", 2)

	completed, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusConfirmed, "admin:jane")
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if completed.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", completed.Status)
	}
	if completed.ConfirmedAt == nil || completed.ConfirmedBy != "admin:jane" {
		t.Fatalf("expected confirmation audit fields: %+v", completed.ConfirmedBy)
	}

	reloaded, err := env.productRepo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	size := reloaded.Variations[0].Sizes[0]
	if size.Label != "M" {
		// size order is not guaranteed, find it
		for _, s := range reloaded.Variations[0].Sizes {
			if s.Label == "M" {
				size = s
			}
		}
	}
	if size.Stock != 3 {
		t.Fatalf("expected size stock 3, got %d", size.Stock)
	}
	if reloaded.TotalStock != 8 {
		t.Fatalf("expected total stock 8, got %d", reloaded.TotalStock)
	}
}

func TestProcessOrderCompletionAccessoryLine(t *testing.T) {
	env := setupServiceTest(t)
	product := seedAccessory(t, env, "deduct-pendant", 4)
	order := createProcessingOrder(t, env, product, "", 3)

	completed, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusCompleted, constants.ActorSystemWorker)
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if completed.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	reloaded, _ := env.productRepo.GetByID(product.ID)
	if reloaded.Variations[0].Stock != 1 {
		t.Fatalf("expected variation stock 1, got %d", reloaded.Variations[0].Stock)
	}
	if reloaded.TotalStock != 1 {
		t.Fatalf("expected total stock 1, got %d", reloaded.TotalStock)
	}
}

func TestProcessOrderCompletionConfirmsPendingOrder(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "pending-confirm-shirt", 5)
	order := createPendingOrder(t, env, product)

	confirmed, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusConfirmed, "admin:jane")
	if err != nil {
		t.Fatalf("confirming a pending order failed: %v", err)
	}
	if confirmed.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	if confirmed.ConfirmedBy != "admin:jane" {
		t.Fatalf("expected confirmer stamp, got %q", confirmed.ConfirmedBy)
	}

	reloaded, _ := env.productRepo.GetByID(product.ID)
	for _, s := range reloaded.Variations[0].Sizes {
		if s.Label == "M" && s.Stock != 4 {
			t.Fatalf("expected size stock 4, got %d", s.Stock)
		}
	}
}

func TestProcessOrderCompletionSecondClaimLoses(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "double-confirm-shirt", 5)
	order := createProcessingOrder(t, env, product, "M", 1)

	if _, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusConfirmed, "admin:jane"); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}
	current, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusCompleted, constants.ActorSystemWorker)
	if !errors.Is(err, ErrOrderAlreadyClaimed) {
		t.Fatalf("expected ErrOrderAlreadyClaimed, got: %v", err)
	}
	// the loser still sees the state the winner left behind
	if current == nil || current.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected the confirmed order back, got %+v", current)
	}

	// stock was deducted exactly once
	reloaded, _ := env.productRepo.GetByID(product.ID)
	var stock int
	for _, s := range reloaded.Variations[0].Sizes {
		if s.Label == "M" {
			stock = s.Stock
		}
	}
	if stock != 4 {
		t.Fatalf("expected single deduction to 4, got %d", stock)
	}
}

func TestProcessOrderCompletionOutOfStockParksOrder(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "oversold-shirt", 1)
	order := createProcessingOrder(t, env, product, "M", 2)

	_, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusConfirmed, "admin:jane")
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got: %v", err)
	}

	reloaded, _ := env.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusInventoryFailureReview {
		t.Fatalf("expected review status, got %s", reloaded.Status)
	}
	if len(reloaded.Notes) == 0 {
		t.Fatalf("expected a failure note")
	}

	// nothing was deducted
	reloadedProduct, _ := env.productRepo.GetByID(product.ID)
	for _, s := range reloadedProduct.Variations[0].Sizes {
		if s.Stock != 1 {
			t.Fatalf("expected stock untouched, got %d for %s", s.Stock, s.Label)
		}
	}
	if reloadedProduct.TotalStock != 2 {
		t.Fatalf("expected total stock untouched, got %d", reloadedProduct.TotalStock)
	}
}

func TestProcessOrderCompletionRollsBackAllLines(t *testing.T) {
	env := setupServiceTest(t)
	shirt := seedClothing(t, env, "rollback-shirt", 5)
	pendant := seedAccessory(t, env, "rollback-pendant", 0)

	order := &models.Order{
		Reference:   fmt.Sprintf("SL-ROLLBACK-%d", time.Now().UnixNano()),
		Email:       "buyer@example.com",
		Status:      constants.OrderStatusProcessing,
		TotalAmount: models.NewMoneyFromFloat(25500),
		Currency:    "NGN",
	}
	items := []models.OrderItem{
		{ProductID: shirt.ID, ProductKind: shirt.Kind, NameSnapshot: shirt.Name, VariationIndex: 1, Size: "M", Quantity: 1, UnitPrice: shirt.Price, LineTotal: shirt.Price},
		{ProductID: pendant.ID, ProductKind: pendant.Kind, NameSnapshot: pendant.Name, VariationIndex: 1, Quantity: 1, UnitPrice: pendant.Price, LineTotal: pendant.Price},
	}
	if err := env.orderRepo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusConfirmed, "admin:jane")
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got: %v", err)
	}

	// the shirt line was deducted inside the transaction and must be back
	reloadedShirt, _ := env.productRepo.GetByID(shirt.ID)
	for _, s := range reloadedShirt.Variations[0].Sizes {
		if s.Label == "M" && s.Stock != 5 {
			t.Fatalf("expected rollback to restore stock 5, got %d", s.Stock)
		}
	}

	reloadedOrder, _ := env.orderRepo.GetByID(order.ID)
	if reloadedOrder.Status != constants.OrderStatusInventoryFailureReview {
		t.Fatalf("expected review status, got %s", reloadedOrder.Status)
	}
}

func TestProcessOrderCompletionUnknownKindFails(t *testing.T) {
	env := setupServiceTest(t)

	order := &models.Order{
		Reference:   fmt.Sprintf("SL-KIND-%d", time.Now().UnixNano()),
		Email:       "buyer@example.com",
		IsGuest:     true,
		Status:      constants.OrderStatusProcessing,
		TotalAmount: models.NewMoneyFromFloat(5000),
		Currency:    "NGN",
	}
	items := []models.OrderItem{
		{ProductID: 77, ProductKind: "gadget", NameSnapshot: "Mystery Gadget", VariationIndex: 1, Quantity: 1, UnitPrice: models.NewMoneyFromFloat(5000), LineTotal: models.NewMoneyFromFloat(5000)},
	}
	if err := env.orderRepo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusConfirmed, "admin:jane")
	if !errors.Is(err, ErrProductKindInvalid) {
		t.Fatalf("expected ErrProductKindInvalid, got: %v", err)
	}

	reloaded, _ := env.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusInventoryFailureReview {
		t.Fatalf("expected review status, got %s", reloaded.Status)
	}
	if len(reloaded.Notes) == 0 {
		t.Fatalf("expected a failure note")
	}
}

func TestProcessOrderCompletionClearsUserCart(t *testing.T) {
	env := setupServiceTest(t)
	product := seedClothing(t, env, "cart-clear-shirt", 5)

	order := &models.Order{
		Reference:   fmt.Sprintf("SL-CART-%d", time.Now().UnixNano()),
		UserID:      9,
		Email:       "buyer@example.com",
		Status:      constants.OrderStatusProcessing,
		TotalAmount: product.Price,
		Currency:    "NGN",
	}
	items := []models.OrderItem{
		{ProductID: product.ID, ProductKind: product.Kind, NameSnapshot: product.Name, VariationIndex: 1, Size: "M", Quantity: 1, UnitPrice: product.Price, LineTotal: product.Price},
	}
	if err := env.orderRepo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	leftover := &models.CartItem{UserID: 9, ProductID: product.ID, VariationIndex: 1, Size: "L", Quantity: 2}
	if err := env.db.Create(leftover).Error; err != nil {
		t.Fatalf("seed cart failed: %v", err)
	}

	if _, err := env.inventory.ProcessOrderCompletion(order.ID, constants.OrderStatusConfirmed, "admin:jane"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}

	remaining, err := env.cartRepo.ListByUser(9)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected the cart cleared after completion, got %d lines", len(remaining))
	}
}

func TestProcessOrderCompletionConcurrentLastUnit(t *testing.T) {
	env := setupServiceTest(t)
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	product := seedClothing(t, env, "last-unit-shirt", 1)
	first := createProcessingOrder(t, env, product, "M", 1)
	second := createProcessingOrder(t, env, product, "M", 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, id := range []uint{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, err := env.inventory.ProcessOrderCompletion(id, constants.OrderStatusConfirmed, "admin:jane")
			results[i] = err
		}(i, id)
	}
	wg.Wait()

	var wins, stockouts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrOutOfStock):
			stockouts++
		default:
			t.Fatalf("unexpected completion error: %v", err)
		}
	}
	if wins != 1 || stockouts != 1 {
		t.Fatalf("expected exactly one winner and one stockout, got %d/%d", wins, stockouts)
	}

	reloaded, _ := env.productRepo.GetByID(product.ID)
	for _, s := range reloaded.Variations[0].Sizes {
		if s.Label == "M" && s.Stock != 0 {
			t.Fatalf("expected the last unit gone, got stock %d", s.Stock)
		}
	}

	var parked int64
	if err := env.db.Model(&models.Order{}).Where("status = ?", constants.OrderStatusInventoryFailureReview).Count(&parked).Error; err != nil {
		t.Fatalf("count parked failed: %v", err)
	}
	if parked != 1 {
		t.Fatalf("expected one order parked for review, got %d", parked)
	}
}

func TestProcessOrderCompletionRejectsBadTerminal(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.inventory.ProcessOrderCompletion(1, constants.OrderStatusShipped, "admin:jane"); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got: %v", err)
	}
}

func TestProcessOrderCompletionMissingOrder(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.inventory.ProcessOrderCompletion(4242, constants.OrderStatusConfirmed, "admin:jane"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}
