package repository

import (
	"errors"

	"github.com/stitchline/stitchline-server/internal/models"

	"gorm.io/gorm"
)

// ProductRepository is the data access interface for the catalog and
// its stock tree.
type ProductRepository interface {
	List(filter ProductFilter, page Pagination) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	UpdateFields(id uint, fields map[string]interface{}) error
	Delete(id uint) error

	GetVariation(productID uint, variationIndex int) (*models.ProductVariation, error)
	GetSize(variationID uint, label string) (*models.VariationSize, error)
	ReplaceVariations(productID uint, variations []models.ProductVariation) error

	DecrementSizeStock(sizeID uint, quantity int) (int64, error)
	DecrementVariationStock(variationID uint, quantity int) (int64, error)
	IncrementSizeStock(sizeID uint, quantity int) error
	IncrementVariationStock(variationID uint, quantity int) error
	DecrementTotalStock(productID uint, quantity int) error
	SetTotalStock(productID uint, total int) error

	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository is the GORM implementation.
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository.
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// List returns a page of products matching the filter.
func (r *GormProductRepository) List(filter ProductFilter, page Pagination) ([]models.Product, int64, error) {
	page.Normalize()
	query := r.db.Model(&models.Product{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if filter.OnlyActive {
		query = query.Where("active = ?", true)
	}
	if filter.InStock {
		query = query.Where("total_stock > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	err := query.
		Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("variation_index ASC")
		}).
		Preload("Variations.Sizes").
		Order("sort_order DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByID loads a product with its full variation tree.
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, errors.New("invalid product id")
	}
	var item models.Product
	err := r.db.
		Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("variation_index ASC")
		}).
		Preload("Variations.Sizes").
		First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetBySlug loads a product by its URL slug.
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	if slug == "" {
		return nil, errors.New("invalid product slug")
	}
	var item models.Product
	err := r.db.
		Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("variation_index ASC")
		}).
		Preload("Variations.Sizes").
		Where("slug = ?", slug).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create inserts a product together with any nested variations.
func (r *GormProductRepository) Create(product *models.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	return r.db.Create(product).Error
}

// Update saves a product record.
func (r *GormProductRepository) Update(product *models.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	return r.db.Save(product).Error
}

// UpdateFields applies a partial update to a product.
func (r *GormProductRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if id == 0 {
		return errors.New("invalid product id")
	}
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

// Delete soft-deletes a product.
func (r *GormProductRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Delete(&models.Product{}, id).Error
}

// GetVariation resolves a variation by its position within the product.
func (r *GormProductRepository) GetVariation(productID uint, variationIndex int) (*models.ProductVariation, error) {
	if productID == 0 || variationIndex < 1 {
		return nil, errors.New("invalid variation params")
	}
	var item models.ProductVariation
	err := r.db.
		Preload("Sizes").
		Where("product_id = ? AND variation_index = ?", productID, variationIndex).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetSize resolves a size bucket by label within a variation.
func (r *GormProductRepository) GetSize(variationID uint, label string) (*models.VariationSize, error) {
	if variationID == 0 || label == "" {
		return nil, errors.New("invalid size params")
	}
	var item models.VariationSize
	err := r.db.
		Where("variation_id = ? AND label = ?", variationID, label).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ReplaceVariations swaps out the full variation tree of a product.
func (r *GormProductRepository) ReplaceVariations(productID uint, variations []models.ProductVariation) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var old []models.ProductVariation
		if err := tx.Where("product_id = ?", productID).Find(&old).Error; err != nil {
			return err
		}
		for _, v := range old {
			if err := tx.Where("variation_id = ?", v.ID).Delete(&models.VariationSize{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVariation{}).Error; err != nil {
			return err
		}
		for i := range variations {
			variations[i].ID = 0
			variations[i].ProductID = productID
			for j := range variations[i].Sizes {
				variations[i].Sizes[j].ID = 0
			}
		}
		if len(variations) == 0 {
			return nil
		}
		return tx.Create(&variations).Error
	})
}

// DecrementSizeStock subtracts quantity from a size bucket only when
// enough stock remains. Callers check RowsAffected: zero means the
// bucket had less than quantity and nothing was changed.
func (r *GormProductRepository) DecrementSizeStock(sizeID uint, quantity int) (int64, error) {
	if sizeID == 0 || quantity <= 0 {
		return 0, errors.New("invalid size stock params")
	}
	result := r.db.Model(&models.VariationSize{}).
		Where("id = ? AND stock >= ?", sizeID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DecrementVariationStock is the direct-stock variant used for
// accessories. Same RowsAffected contract as DecrementSizeStock.
func (r *GormProductRepository) DecrementVariationStock(variationID uint, quantity int) (int64, error) {
	if variationID == 0 || quantity <= 0 {
		return 0, errors.New("invalid variation stock params")
	}
	result := r.db.Model(&models.ProductVariation{}).
		Where("id = ? AND stock >= ?", variationID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementSizeStock adds quantity back to a size bucket.
func (r *GormProductRepository) IncrementSizeStock(sizeID uint, quantity int) error {
	if sizeID == 0 || quantity <= 0 {
		return errors.New("invalid size stock params")
	}
	return r.db.Model(&models.VariationSize{}).
		Where("id = ?", sizeID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}

// IncrementVariationStock adds quantity back to a variation.
func (r *GormProductRepository) IncrementVariationStock(variationID uint, quantity int) error {
	if variationID == 0 || quantity <= 0 {
		return errors.New("invalid variation stock params")
	}
	return r.db.Model(&models.ProductVariation{}).
		Where("id = ?", variationID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}

// DecrementTotalStock lowers the denormalized product counter after
// leaf decrements have succeeded.
func (r *GormProductRepository) DecrementTotalStock(productID uint, quantity int) error {
	if productID == 0 || quantity <= 0 {
		return errors.New("invalid total stock params")
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("total_stock", gorm.Expr("total_stock - ?", quantity)).Error
}

// SetTotalStock overwrites the denormalized product counter.
func (r *GormProductRepository) SetTotalStock(productID uint, total int) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("total_stock", total).Error
}
