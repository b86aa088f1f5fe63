package repository

import (
	"errors"
	"time"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/models"

	"gorm.io/gorm"
)

// OrderRepository is the data access interface for orders.
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByReference(reference string) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	GetByReferenceAndEmail(reference, email string) (*models.Order, error)
	ListByUser(userID uint, filter OrderFilter, page Pagination) ([]models.Order, int64, error)
	ListAdmin(filter OrderFilter, page Pagination) ([]models.Order, int64, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	ClaimStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	ClaimForDeduction(id uint, actor string) (int64, error)
	AppendNote(id uint, note string) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository is the GORM implementation.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository.
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create inserts an order and its line snapshots.
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID loads an order with its items.
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByReference loads an order by its public reference.
func (r *GormOrderRepository) GetByReference(reference string) (*models.Order, error) {
	if reference == "" {
		return nil, errors.New("invalid order reference")
	}
	var order models.Order
	if err := r.db.Preload("Items").Where("reference = ?", reference).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser loads an order scoped to its owner.
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByReferenceAndEmail loads a guest order by reference plus the
// email given at checkout.
func (r *GormOrderRepository) GetByReferenceAndEmail(reference, email string) (*models.Order, error) {
	if reference == "" || email == "" {
		return nil, errors.New("invalid guest lookup params")
	}
	var order models.Order
	if err := r.db.Preload("Items").
		Where("reference = ? AND email = ?", reference, email).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a page of the user's orders.
func (r *GormOrderRepository) ListByUser(userID uint, filter OrderFilter, page Pagination) ([]models.Order, int64, error) {
	page.Normalize()
	query := r.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Reference != "" {
		query = query.Where("reference LIKE ?", "%"+filter.Reference+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("id desc").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAdmin returns a page of orders for the back office.
func (r *GormOrderRepository) ListAdmin(filter OrderFilter, page Pagination) ([]models.Order, int64, error) {
	page.Normalize()
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("id desc").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus writes the status plus any extra columns.
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// ClaimStatus moves status only when the row still holds fromStatus.
// Zero RowsAffected means another worker won the claim and the caller
// must back off.
func (r *GormOrderRepository) ClaimStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	if id == 0 || fromStatus == "" || toStatus == "" {
		return 0, errors.New("invalid status claim params")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ClaimForDeduction elects one caller to run stock deduction. The
// conditional write moves a pending or processing order to processing
// and stamps the confirmer, matching only while no confirmer is set,
// so exactly one of any number of concurrent confirm attempts wins.
func (r *GormOrderRepository) ClaimForDeduction(id uint, actor string) (int64, error) {
	if id == 0 || actor == "" {
		return 0, errors.New("invalid deduction claim params")
	}
	awaiting := []string{constants.OrderStatusPending, constants.OrderStatusProcessing}
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status IN ? AND (confirmed_by = '' OR confirmed_by IS NULL)", id, awaiting).
		Updates(map[string]interface{}{
			"status":       constants.OrderStatusProcessing,
			"confirmed_by": actor,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AppendNote appends an audit line to the order's note trail.
func (r *GormOrderRepository) AppendNote(id uint, note string) error {
	if id == 0 || note == "" {
		return errors.New("invalid note params")
	}
	var order models.Order
	if err := r.db.Select("id", "notes").First(&order, id).Error; err != nil {
		return err
	}
	order.Notes = append(order.Notes, note)
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("notes", order.Notes).Error
}
