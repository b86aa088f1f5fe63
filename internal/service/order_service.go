package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService owns checkout and the order status machine. Status
// changes go through the central transition table; the paid-order
// deduction path lives in InventoryService.
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	cfg         config.OrderConfig
}

// NewOrderService creates the order service.
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, cfg config.OrderConfig) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		cfg:         cfg,
	}
}

// allowedTransitions is the only place order status edges are defined.
// Every status write checks it, including the conditional claims.
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusProcessing:           true,
		constants.OrderStatusCancelled:            true,
		constants.OrderStatusVerificationFailed:   true,
		constants.OrderStatusAmountMismatchReview: true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusConfirmed:              true,
		constants.OrderStatusCompleted:              true,
		constants.OrderStatusCancelled:              true,
		constants.OrderStatusInventoryFailureReview: true,
	},
	constants.OrderStatusVerificationFailed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusAmountMismatchReview: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusInventoryFailureReview: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusCompleted: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
}

func isTransitionAllowed(current, target string) bool {
	if current == target {
		return true
	}
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// CheckoutInput is what the checkout endpoint collects. Either UserID
// or SessionID identifies the cart; Email is required for guests and
// optional for accounts.
type CheckoutInput struct {
	UserID        uint
	SessionID     string
	Email         string
	ShippingName  string
	ShippingPhone string
	ShippingAddr  string
}

// Checkout turns the cart into a pending order with immutable line
// snapshots, then clears the cart. Stock is only advisory-checked
// here; the binding deduction happens at completion.
func (s *OrderService) Checkout(input CheckoutInput) (*models.Order, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}

	var cartItems []models.CartItem
	var err error
	if input.UserID != 0 {
		cartItems, err = s.cartRepo.ListByUser(input.UserID)
	} else {
		cartItems, err = s.cartRepo.ListBySession(input.SessionID)
	}
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	items, subtotal, err := s.buildOrderItems(cartItems)
	if err != nil {
		return nil, err
	}

	shipping, err := models.NewMoneyFromString(s.cfg.ShippingFee)
	if err != nil {
		shipping = models.Zero()
	}
	tax := models.NewMoney(subtotal.Decimal.
		Mul(decimal.NewFromFloat(s.cfg.TaxRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(2))
	total := subtotal.Add(shipping).Add(tax)

	currency := s.cfg.Currency
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}

	order := &models.Order{
		Reference:     generateOrderReference(),
		UserID:        input.UserID,
		IsGuest:       input.UserID == 0,
		Email:         email,
		Status:        constants.OrderStatusPending,
		Subtotal:      subtotal,
		ShippingFee:   shipping,
		Tax:           tax,
		TotalAmount:   total,
		Currency:      currency,
		ShippingName:  strings.TrimSpace(input.ShippingName),
		ShippingPhone: strings.TrimSpace(input.ShippingPhone),
		ShippingAddr:  strings.TrimSpace(input.ShippingAddr),
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, items)
	})
	if err != nil {
		return nil, err
	}

	// Cart clearing is best effort, a leftover cart never blocks the order.
	if input.UserID != 0 {
		if err := s.cartRepo.ClearByUser(input.UserID); err != nil {
			logger.Warnw("checkout_cart_clear_failed", "user_id", input.UserID, "error", err)
		}
	} else if input.SessionID != "" {
		if err := s.cartRepo.ClearBySession(input.SessionID); err != nil {
			logger.Warnw("checkout_cart_clear_failed", "session_id", input.SessionID, "error", err)
		}
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"reference", order.Reference,
		"user_id", order.UserID,
		"total", order.TotalAmount,
		"items", len(items))

	return s.orderRepo.GetByID(order.ID)
}

// buildOrderItems snapshots cart lines against the live catalog and
// returns the lines plus the subtotal.
func (s *OrderService) buildOrderItems(cartItems []models.CartItem) ([]models.OrderItem, models.Money, error) {
	subtotal := models.Zero()
	items := make([]models.OrderItem, 0, len(cartItems))

	for _, line := range cartItems {
		if line.Quantity <= 0 {
			return nil, models.Money{}, ErrInvalidQuantity
		}
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, models.Money{}, err
		}
		if product == nil {
			return nil, models.Money{}, ErrProductNotFound
		}
		if !product.Active {
			return nil, models.Money{}, ErrProductInactive
		}

		variation := findVariation(product, line.VariationIndex)
		if variation == nil {
			return nil, models.Money{}, ErrVariationNotFound
		}
		if SizeKeyedKind(product.Kind) {
			if line.Size == "" {
				return nil, models.Money{}, ErrSizeRequired
			}
			size := findSize(variation, line.Size)
			if size == nil {
				return nil, models.Money{}, ErrSizeNotFound
			}
			if size.Stock < line.Quantity {
				return nil, models.Money{}, fmt.Errorf("%s size %s: %w", product.Name, line.Size, ErrOutOfStock)
			}
		} else {
			if line.Size != "" {
				return nil, models.Money{}, ErrSizeNotAllowed
			}
			if variation.Stock < line.Quantity {
				return nil, models.Money{}, fmt.Errorf("%s: %w", product.Name, ErrOutOfStock)
			}
		}

		lineTotal := product.Price.MulInt(int64(line.Quantity))
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			ProductKind:    product.Kind,
			NameSnapshot:   product.Name,
			ImageSnapshot:  variation.ImageFront,
			VariationIndex: line.VariationIndex,
			Size:           line.Size,
			Quantity:       line.Quantity,
			UnitPrice:      product.Price,
			LineTotal:      lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, nil
}

// MarkProcessing claims a pending order after payment verification.
// Returns the number of rows claimed: zero means the order already
// left pending, which webhook redelivery treats as a no-op.
func (s *OrderService) MarkProcessing(orderID uint, paymentRef, transactionID string) (int64, error) {
	now := time.Now()
	return s.orderRepo.ClaimStatus(orderID, constants.OrderStatusPending, constants.OrderStatusProcessing, map[string]interface{}{
		"updated_at":     now,
		"paid_at":        &now,
		"payment_ref":    paymentRef,
		"transaction_id": transactionID,
	})
}

// MarkReview moves a pending order into one of the review statuses
// after a failed or mismatched verification.
func (s *OrderService) MarkReview(orderID uint, target, note string) error {
	if target != constants.OrderStatusVerificationFailed && target != constants.OrderStatusAmountMismatchReview {
		return ErrOrderStatusInvalid
	}
	claimed, err := s.orderRepo.ClaimStatus(orderID, constants.OrderStatusPending, target, map[string]interface{}{
		"updated_at": time.Now(),
	})
	if err != nil {
		return err
	}
	if claimed == 0 {
		return ErrOrderAlreadyClaimed
	}
	if note != "" {
		if err := s.orderRepo.AppendNote(orderID, note); err != nil {
			logger.Warnw("order_note_append_failed", "order_id", orderID, "error", err)
		}
	}
	return nil
}

// Cancel cancels an order if its current status allows it. Stock is
// never restored here; cancelling a deducted order leaves restocking
// to an explicit admin restock.
func (s *OrderService) Cancel(orderID uint, actor string) (*models.Order, error) {
	return s.UpdateStatus(orderID, constants.OrderStatusCancelled, actor)
}

// UpdateStatus applies an admin-driven transition through the central
// guard. The write is conditional on the status the guard saw, so a
// concurrent change makes it fail instead of skipping an edge.
func (s *OrderService) UpdateStatus(orderID uint, target, actor string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == target {
		return order, nil
	}
	if !isTransitionAllowed(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}
	if target == constants.OrderStatusConfirmed || target == constants.OrderStatusCompleted {
		// Terminal paid statuses must go through inventory deduction.
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	switch target {
	case constants.OrderStatusShipped:
		updates["shipped_at"] = &now
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = &now
	}

	claimed, err := s.orderRepo.ClaimStatus(order.ID, order.Status, target, updates)
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if claimed == 0 {
		return nil, ErrOrderAlreadyClaimed
	}

	if actor != "" {
		note := fmt.Sprintf("status %s -> %s by %s", order.Status, target, actor)
		if err := s.orderRepo.AppendNote(order.ID, note); err != nil {
			logger.Warnw("order_note_append_failed", "order_id", order.ID, "error", err)
		}
	}

	logger.Infow("order_status_changed",
		"order_id", order.ID,
		"reference", order.Reference,
		"from", order.Status,
		"to", target,
		"actor", actor)

	return s.orderRepo.GetByID(order.ID)
}

// GetOrder loads an order for the back office.
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetUserOrder loads an order scoped to its owner.
func (s *OrderService) GetUserOrder(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetGuestOrder loads a guest order by reference and checkout email.
func (s *OrderService) GetGuestOrder(reference, email string) (*models.Order, error) {
	order, err := s.orderRepo.GetByReferenceAndEmail(reference, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByReference loads an order by its public reference.
func (s *OrderService) GetByReference(reference string) (*models.Order, error) {
	order, err := s.orderRepo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListUserOrders returns a page of the user's orders.
func (s *OrderService) ListUserOrders(userID uint, filter repository.OrderFilter, page repository.Pagination) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(userID, filter, page)
}

// ListAdminOrders returns a page of orders for the back office.
func (s *OrderService) ListAdminOrders(filter repository.OrderFilter, page repository.Pagination) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter, page)
}

func findVariation(product *models.Product, index int) *models.ProductVariation {
	for i := range product.Variations {
		if product.Variations[i].VariationIndex == index {
			return &product.Variations[i]
		}
	}
	return nil
}

func findSize(variation *models.ProductVariation, label string) *models.VariationSize {
	for i := range variation.Sizes {
		if variation.Sizes[i].Label == label {
			return &variation.Sizes[i]
		}
	}
	return nil
}

func generateOrderReference() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("%s%s%s", constants.OrderReferencePrefix, now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
