package repository

import (
	"errors"

	"github.com/stitchline/stitchline-server/internal/models"

	"gorm.io/gorm"
)

// CartRepository is the data access interface for cart items. Carts
// are keyed by user ID for accounts and by session ID for guests.
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	ListBySession(sessionID string) ([]models.CartItem, error)
	GetByID(id uint) (*models.CartItem, error)
	FindLine(userID uint, sessionID string, productID uint, variationIndex int, size string) (*models.CartItem, error)
	Create(item *models.CartItem) error
	UpdateQuantity(id uint, quantity int) error
	Delete(id uint) error
	ClearByUser(userID uint) error
	ClearBySession(sessionID string) error
	MergeSessionIntoUser(sessionID string, userID uint) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository is the GORM implementation.
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a cart repository.
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser returns the account cart with products preloaded.
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	if userID == 0 {
		return nil, errors.New("invalid user id")
	}
	var items []models.CartItem
	if err := r.db.Preload("Product").Preload("Product.Variations").Preload("Product.Variations.Sizes").
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListBySession returns the guest cart with products preloaded.
func (r *GormCartRepository) ListBySession(sessionID string) ([]models.CartItem, error) {
	if sessionID == "" {
		return nil, errors.New("invalid session id")
	}
	var items []models.CartItem
	if err := r.db.Preload("Product").Preload("Product.Variations").Preload("Product.Variations.Sizes").
		Where("user_id = 0 AND session_id = ?", sessionID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID loads a single cart line.
func (r *GormCartRepository) GetByID(id uint) (*models.CartItem, error) {
	if id == 0 {
		return nil, errors.New("invalid cart item id")
	}
	var item models.CartItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindLine looks up an existing line for the same selection so adds
// can merge instead of duplicating.
func (r *GormCartRepository) FindLine(userID uint, sessionID string, productID uint, variationIndex int, size string) (*models.CartItem, error) {
	query := r.db.Where("product_id = ? AND variation_index = ? AND size = ?", productID, variationIndex, size)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	} else {
		query = query.Where("user_id = 0 AND session_id = ?", sessionID)
	}
	var item models.CartItem
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create inserts a cart line.
func (r *GormCartRepository) Create(item *models.CartItem) error {
	if item == nil {
		return errors.New("cart item is nil")
	}
	return r.db.Create(item).Error
}

// UpdateQuantity sets the quantity of a line.
func (r *GormCartRepository) UpdateQuantity(id uint, quantity int) error {
	if id == 0 || quantity <= 0 {
		return errors.New("invalid quantity params")
	}
	return r.db.Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity).Error
}

// Delete removes a line.
func (r *GormCartRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid cart item id")
	}
	return r.db.Delete(&models.CartItem{}, id).Error
}

// ClearByUser empties an account cart.
func (r *GormCartRepository) ClearByUser(userID uint) error {
	if userID == 0 {
		return errors.New("invalid user id")
	}
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// ClearBySession empties a guest cart.
func (r *GormCartRepository) ClearBySession(sessionID string) error {
	if sessionID == "" {
		return errors.New("invalid session id")
	}
	return r.db.Where("user_id = 0 AND session_id = ?", sessionID).Delete(&models.CartItem{}).Error
}

// MergeSessionIntoUser reassigns a guest cart to an account after
// login. Lines matching an existing account line keep the larger
// quantity.
func (r *GormCartRepository) MergeSessionIntoUser(sessionID string, userID uint) error {
	if sessionID == "" || userID == 0 {
		return errors.New("invalid merge params")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var guestItems []models.CartItem
		if err := tx.Where("user_id = 0 AND session_id = ?", sessionID).Find(&guestItems).Error; err != nil {
			return err
		}
		for _, g := range guestItems {
			var existing models.CartItem
			err := tx.Where("user_id = ? AND product_id = ? AND variation_index = ? AND size = ?",
				userID, g.ProductID, g.VariationIndex, g.Size).First(&existing).Error
			switch {
			case err == nil:
				if g.Quantity > existing.Quantity {
					if err := tx.Model(&models.CartItem{}).Where("id = ?", existing.ID).
						Update("quantity", g.Quantity).Error; err != nil {
						return err
					}
				}
				if err := tx.Delete(&models.CartItem{}, g.ID).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Model(&models.CartItem{}).Where("id = ?", g.ID).
					Updates(map[string]interface{}{"user_id": userID, "session_id": ""}).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}
		return nil
	})
}
