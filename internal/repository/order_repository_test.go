package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func createPendingOrder(t *testing.T, repo *GormOrderRepository, reference string) *models.Order {
	t.Helper()
	order := &models.Order{
		Reference:   reference,
		Email:       "buyer@example.com",
		IsGuest:     true,
		Status:      constants.OrderStatusPending,
		Subtotal:    models.NewMoneyFromFloat(18500),
		TotalAmount: models.NewMoneyFromFloat(20000),
		Currency:    constants.SiteCurrencyDefault,
	}
	items := []models.OrderItem{
		{
			ProductID:      1,
			ProductKind:    constants.ProductKindClothing,
			NameSnapshot:   "Lagos Linen Shirt",
			VariationIndex: 1,
			Size:           "M",
			Quantity:       1,
			UnitPrice:      models.NewMoneyFromFloat(18500),
			LineTotal:      models.NewMoneyFromFloat(18500),
		},
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestClaimStatus(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createPendingOrder(t, repo, "SL-CLAIM-1")

	now := time.Now()
	claimed, err := repo.ClaimStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusProcessing, map[string]interface{}{
		"paid_at": &now,
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed != 1 {
		t.Fatalf("expected 1 row claimed, got %d", claimed)
	}

	// second claim on the old status loses
	claimed, err = repo.ClaimStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusProcessing, nil)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed != 0 {
		t.Fatalf("expected 0 rows on stale claim, got %d", claimed)
	}

	reloaded, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", reloaded.Status)
	}
	if reloaded.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}
	if len(reloaded.Items) != 1 {
		t.Fatalf("expected items to be preloaded, got %d", len(reloaded.Items))
	}
}

func TestClaimForDeduction(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createPendingOrder(t, repo, "SL-DEDUCT-1")

	claimed, err := repo.ClaimForDeduction(order.ID, "admin:bisi")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed != 1 {
		t.Fatalf("expected 1 row claimed, got %d", claimed)
	}

	reloaded, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", reloaded.Status)
	}
	if reloaded.ConfirmedBy != "admin:bisi" {
		t.Fatalf("expected confirmer stamp, got %q", reloaded.ConfirmedBy)
	}

	// the stamp is the claim token, a second actor loses even though
	// the order still sits in processing
	claimed, err = repo.ClaimForDeduction(order.ID, "admin:tunde")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed != 0 {
		t.Fatalf("expected 0 rows on second claim, got %d", claimed)
	}

	if _, err := repo.ClaimForDeduction(0, "admin:bisi"); err == nil {
		t.Fatalf("expected error for zero id")
	}
	if _, err := repo.ClaimForDeduction(order.ID, ""); err == nil {
		t.Fatalf("expected error for empty actor")
	}
}

func TestClaimForDeductionSkipsSettledOrders(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createPendingOrder(t, repo, "SL-DEDUCT-2")
	if err := repo.UpdateStatus(order.ID, constants.OrderStatusCancelled, nil); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	claimed, err := repo.ClaimForDeduction(order.ID, "admin:bisi")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed != 0 {
		t.Fatalf("expected 0 rows for a cancelled order, got %d", claimed)
	}
}

func TestClaimStatusRejectsInvalidParams(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	if _, err := repo.ClaimStatus(0, constants.OrderStatusPending, constants.OrderStatusProcessing, nil); err == nil {
		t.Fatalf("expected error for zero id")
	}
	if _, err := repo.ClaimStatus(1, "", constants.OrderStatusProcessing, nil); err == nil {
		t.Fatalf("expected error for empty from status")
	}
}

func TestAppendNote(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createPendingOrder(t, repo, "SL-NOTE-1")

	if err := repo.AppendNote(order.ID, "first note"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := repo.AppendNote(order.ID, "second note"); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	reloaded, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(reloaded.Notes))
	}
	if reloaded.Notes[0] != "first note" || reloaded.Notes[1] != "second note" {
		t.Fatalf("unexpected notes: %v", reloaded.Notes)
	}
}

func TestGuestLookupRequiresMatchingEmail(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	createPendingOrder(t, repo, "SL-GUEST-1")

	order, err := repo.GetByReferenceAndEmail("SL-GUEST-1", "buyer@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if order == nil {
		t.Fatalf("expected order for matching email")
	}

	order, err = repo.GetByReferenceAndEmail("SL-GUEST-1", "stranger@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil for wrong email")
	}
}

func TestListAdminFilters(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	createPendingOrder(t, repo, "SL-LIST-1")
	second := createPendingOrder(t, repo, "SL-LIST-2")
	if err := db.Model(&models.Order{}).Where("id = ?", second.ID).Update("status", constants.OrderStatusProcessing).Error; err != nil {
		t.Fatalf("update failed: %v", err)
	}

	orders, total, err := repo.ListAdmin(OrderFilter{Status: constants.OrderStatusProcessing}, Pagination{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].Reference != "SL-LIST-2" {
		t.Fatalf("unexpected filter result: total=%d", total)
	}

	orders, total, err = repo.ListAdmin(OrderFilter{Reference: "SL-LIST-1"}, Pagination{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || orders[0].Reference != "SL-LIST-1" {
		t.Fatalf("unexpected reference filter result: total=%d", total)
	}
}
