package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/queue"
	"github.com/stitchline/stitchline-server/internal/repository"

	"gorm.io/gorm"
)

// InventoryService owns the paid-order completion path: flipping a
// pending or processing order to its terminal status and deducting
// stock for every line in one database transaction. Either everything
// commits or nothing does.
type InventoryService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	queueClient *queue.Client
}

// NewInventoryService creates the inventory service.
func NewInventoryService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, queueClient *queue.Client) *InventoryService {
	return &InventoryService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		queueClient: queueClient,
	}
}

// ProcessOrderCompletion settles a paid order in two steps, each
// atomic on its own. Step one is the optimistic claim: a conditional
// write moves a pending or processing order to processing with a
// confirmer stamp, electing exactly one of any concurrent confirm
// attempts. Step two deducts stock for all lines and writes the
// terminal status inside one transaction.
//
// A lost claim is a race, not a failure: the caller gets the current
// order together with ErrOrderAlreadyClaimed and should report the
// state it sees rather than alarm.
//
// When any line lacks stock the transaction rolls back and the order
// is parked in inventory_failure_review with a note naming the line,
// leaving all stock untouched.
func (s *InventoryService) ProcessOrderCompletion(orderID uint, terminal string, actor string) (*models.Order, error) {
	if terminal != constants.OrderStatusConfirmed && terminal != constants.OrderStatusCompleted {
		return nil, ErrOrderStatusInvalid
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if len(order.Items) == 0 {
		return nil, ErrOrderUpdateFailed
	}

	claimed, err := s.orderRepo.ClaimForDeduction(order.ID, actor)
	if err != nil {
		return nil, err
	}
	if claimed == 0 {
		return s.currentState(order.ID)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"updated_at":   now,
		"confirmed_at": &now,
	}

	var failedLine string
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		flipped, err := orderRepo.ClaimStatus(order.ID, constants.OrderStatusProcessing, terminal, updates)
		if err != nil {
			return err
		}
		if flipped == 0 {
			return ErrOrderAlreadyClaimed
		}

		perProduct := map[uint]int{}
		for _, item := range order.Items {
			if err := s.deductLine(productRepo, item, &failedLine); err != nil {
				return err
			}
			perProduct[item.ProductID] += item.Quantity
		}
		for productID, qty := range perProduct {
			if err := productRepo.DecrementTotalStock(productID, qty); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrOrderAlreadyClaimed) {
			return s.currentState(order.ID)
		}
		if errors.Is(err, ErrOutOfStock) || errors.Is(err, ErrProductKindInvalid) {
			s.recordInventoryFailure(order.ID, failedLine, actor)
			logger.Warnw("order_inventory_failure",
				"order_id", order.ID,
				"reference", order.Reference,
				"line", failedLine,
				"actor", actor)
		}
		return nil, err
	}

	logger.Infow("order_inventory_deducted",
		"order_id", order.ID,
		"reference", order.Reference,
		"status", terminal,
		"actor", actor)

	final, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	s.afterCommit(final)
	return final, nil
}

// currentState backs the lost-claim path: the caller gets whatever
// the winning actor left behind, flagged as a race.
func (s *InventoryService) currentState(orderID uint) (*models.Order, error) {
	current, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrOrderNotFound
	}
	return current, ErrOrderAlreadyClaimed
}

// deductLine resolves the stock row an order line points at and runs
// the conditional decrement. Zero rows affected means the row dropped
// below the requested quantity since checkout.
func (s *InventoryService) deductLine(productRepo repository.ProductRepository, item models.OrderItem, failedLine *string) error {
	sizeKeyed, err := StockDispatch(item.ProductKind)
	if err != nil {
		*failedLine = describeLine(item)
		return fmt.Errorf("%s: %w", describeLine(item), err)
	}

	variation, err := productRepo.GetVariation(item.ProductID, item.VariationIndex)
	if err != nil {
		return err
	}
	if variation == nil {
		*failedLine = describeLine(item)
		return fmt.Errorf("%s: %w", describeLine(item), ErrOutOfStock)
	}

	if sizeKeyed {
		if item.Size == "" {
			*failedLine = describeLine(item)
			return fmt.Errorf("%s: %w", describeLine(item), ErrOutOfStock)
		}
		size, err := productRepo.GetSize(variation.ID, item.Size)
		if err != nil {
			return err
		}
		if size == nil {
			*failedLine = describeLine(item)
			return fmt.Errorf("%s: %w", describeLine(item), ErrOutOfStock)
		}
		affected, err := productRepo.DecrementSizeStock(size.ID, item.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			*failedLine = describeLine(item)
			return fmt.Errorf("%s: %w", describeLine(item), ErrOutOfStock)
		}
		return nil
	}

	affected, err := productRepo.DecrementVariationStock(variation.ID, item.Quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		*failedLine = describeLine(item)
		return fmt.Errorf("%s: %w", describeLine(item), ErrOutOfStock)
	}
	return nil
}

// afterCommit runs the post-deduction side effects. All best effort:
// the deduction already committed and a cart or queue failure must
// never undo it.
func (s *InventoryService) afterCommit(order *models.Order) {
	if order == nil {
		return
	}
	if order.UserID != 0 && s.cartRepo != nil {
		if err := s.cartRepo.ClearByUser(order.UserID); err != nil {
			logger.Warnw("order_cart_clear_failed",
				"order_id", order.ID,
				"user_id", order.UserID,
				"error", err)
		}
	}
	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
			OrderID: order.ID,
			Status:  order.Status,
		}); err != nil {
			logger.Warnw("order_status_email_enqueue_failed", "order_id", order.ID, "error", err)
		}
	}
}

// recordInventoryFailure parks the order for manual review. Best
// effort: the deduction already rolled back, this just moves the
// order off the processing queue and leaves an audit note. The
// confirmer stamp is cleared so a retry after restock can claim the
// order again.
func (s *InventoryService) recordInventoryFailure(orderID uint, line string, actor string) {
	claimed, err := s.orderRepo.ClaimStatus(orderID, constants.OrderStatusProcessing, constants.OrderStatusInventoryFailureReview, map[string]interface{}{
		"updated_at":   time.Now(),
		"confirmed_by": "",
		"confirmed_at": nil,
	})
	if err != nil {
		logger.Errorw("order_inventory_failure_mark_failed", "order_id", orderID, "error", err)
		return
	}
	if claimed == 0 {
		return
	}
	note := fmt.Sprintf("inventory deduction failed for %s (actor %s)", line, actor)
	if err := s.orderRepo.AppendNote(orderID, note); err != nil {
		logger.Errorw("order_inventory_failure_note_failed", "order_id", orderID, "error", err)
	}
}

func describeLine(item models.OrderItem) string {
	if item.Size != "" {
		return fmt.Sprintf("product %d variation %d size %s x%d", item.ProductID, item.VariationIndex, item.Size, item.Quantity)
	}
	return fmt.Sprintf("product %d variation %d x%d", item.ProductID, item.VariationIndex, item.Quantity)
}
