package service

import (
	"strings"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/repository"
)

// ProductService owns catalog management. Stock writes here are
// admin-driven restocks, never order deductions.
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates the product service.
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// SizeInput is one size bucket in a variation input.
type SizeInput struct {
	Label string `json:"label" binding:"required"`
	Stock int    `json:"stock"`
}

// VariationInput is one colorway in a product input.
type VariationInput struct {
	Color      string      `json:"color"`
	ImageFront string      `json:"image_front"`
	ImageBack  string      `json:"image_back"`
	Stock      int         `json:"stock"`
	Sizes      []SizeInput `json:"sizes"`
}

// ProductInput is the create and update payload.
type ProductInput struct {
	Kind        string           `json:"kind" binding:"required"`
	Name        string           `json:"name" binding:"required"`
	Slug        string           `json:"slug" binding:"required"`
	Description string           `json:"description"`
	Price       string           `json:"price" binding:"required"`
	Images      []string         `json:"images"`
	Attributes  models.JSON      `json:"attributes"`
	Active      bool             `json:"active"`
	SortOrder   int              `json:"sort_order"`
	Variations  []VariationInput `json:"variations" binding:"required"`
}

// List returns catalog pages.
func (s *ProductService) List(filter repository.ProductFilter, page repository.Pagination) ([]models.Product, int64, error) {
	return s.productRepo.List(filter, page)
}

// Get loads one product with its variation tree.
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetBySlug loads one product by URL slug, active products only.
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Active {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create validates the input against its kind and inserts the product
// with its variation tree.
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	product, err := s.buildProduct(input)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "kind", product.Kind, "name", product.Name)
	return s.productRepo.GetByID(product.ID)
}

// Update replaces the product fields and its full variation tree,
// then recomputes the stock counter.
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	product, err := s.buildProduct(input)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"kind":        product.Kind,
		"name":        product.Name,
		"slug":        product.Slug,
		"description": product.Description,
		"price":       product.Price,
		"images":      product.Images,
		"attributes":  product.Attributes,
		"active":      product.Active,
		"sort_order":  product.SortOrder,
	}
	if err := s.productRepo.UpdateFields(existing.ID, fields); err != nil {
		return nil, err
	}
	if err := s.productRepo.ReplaceVariations(existing.ID, product.Variations); err != nil {
		return nil, err
	}
	if err := s.recomputeTotal(existing.ID, product.Active); err != nil {
		return nil, err
	}
	logger.Infow("product_updated", "product_id", existing.ID)
	return s.productRepo.GetByID(existing.ID)
}

// Restock adds units to one stock row and refreshes the counter.
func (s *ProductService) Restock(productID uint, variationIndex int, size string, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if variationIndex < 1 {
		return nil, ErrVariationNotFound
	}
	product, err := s.Get(productID)
	if err != nil {
		return nil, err
	}
	variation, err := s.productRepo.GetVariation(productID, variationIndex)
	if err != nil {
		return nil, err
	}
	if variation == nil {
		return nil, ErrVariationNotFound
	}

	if SizeKeyedKind(product.Kind) {
		if size == "" {
			return nil, ErrSizeRequired
		}
		sizeRow, err := s.productRepo.GetSize(variation.ID, size)
		if err != nil {
			return nil, err
		}
		if sizeRow == nil {
			return nil, ErrSizeNotFound
		}
		if err := s.productRepo.IncrementSizeStock(sizeRow.ID, quantity); err != nil {
			return nil, err
		}
	} else {
		if size != "" {
			return nil, ErrSizeNotAllowed
		}
		if err := s.productRepo.IncrementVariationStock(variation.ID, quantity); err != nil {
			return nil, err
		}
	}

	if err := s.recomputeTotal(productID, product.Active); err != nil {
		return nil, err
	}
	logger.Infow("product_restocked",
		"product_id", productID,
		"variation_index", variationIndex,
		"size", size,
		"quantity", quantity)
	return s.productRepo.GetByID(productID)
}

// SetActive toggles visibility. Deactivated products report zero
// stock so listing filters drop them; reactivating recomputes from
// the variation tree.
func (s *ProductService) SetActive(id uint, active bool) (*models.Product, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if err := s.productRepo.UpdateFields(id, map[string]interface{}{"active": active}); err != nil {
		return nil, err
	}
	if err := s.recomputeTotal(id, active); err != nil {
		return nil, err
	}
	logger.Infow("product_active_changed", "product_id", id, "active", active)
	return s.productRepo.GetByID(id)
}

// Delete soft-deletes a product.
func (s *ProductService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.productRepo.Delete(id)
}

func (s *ProductService) recomputeTotal(productID uint, active bool) error {
	if !active {
		return s.productRepo.SetTotalStock(productID, 0)
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	total, err := ComputeTotalStock(product)
	if err != nil {
		return err
	}
	return s.productRepo.SetTotalStock(productID, total)
}

func (s *ProductService) buildProduct(input ProductInput) (*models.Product, error) {
	kind := strings.ToLower(strings.TrimSpace(input.Kind))
	if !validKind(kind) {
		return nil, ErrProductKindInvalid
	}
	if len(input.Variations) == 0 || len(input.Variations) > constants.VariationCountMax {
		return nil, ErrVariationsInvalid
	}

	price, err := models.NewMoneyFromString(input.Price)
	if err != nil || price.IsNegative() {
		return nil, ErrPriceInvalid
	}

	variations := make([]models.ProductVariation, 0, len(input.Variations))
	for i, v := range input.Variations {
		variation := models.ProductVariation{
			VariationIndex: i + 1,
			Color:          strings.TrimSpace(v.Color),
			ImageFront:     strings.TrimSpace(v.ImageFront),
			ImageBack:      strings.TrimSpace(v.ImageBack),
		}
		if SizeKeyedKind(kind) {
			if len(v.Sizes) == 0 {
				return nil, ErrSizeRequired
			}
			seen := map[string]bool{}
			for _, sz := range v.Sizes {
				label := strings.ToUpper(strings.TrimSpace(sz.Label))
				if label == "" || seen[label] || sz.Stock < 0 {
					return nil, ErrVariationsInvalid
				}
				seen[label] = true
				variation.Sizes = append(variation.Sizes, models.VariationSize{
					Label: label,
					Stock: sz.Stock,
				})
			}
		} else {
			if len(v.Sizes) > 0 {
				return nil, ErrSizeNotAllowed
			}
			if v.Stock < 0 {
				return nil, ErrInvalidQuantity
			}
			variation.Stock = v.Stock
		}
		variations = append(variations, variation)
	}

	product := &models.Product{
		Kind:        kind,
		Name:        strings.TrimSpace(input.Name),
		Slug:        strings.ToLower(strings.TrimSpace(input.Slug)),
		Description: input.Description,
		Price:       price,
		Images:      input.Images,
		Attributes:  input.Attributes,
		Active:      input.Active,
		SortOrder:   input.SortOrder,
		Variations:  variations,
	}
	if product.Active {
		total, err := ComputeTotalStock(product)
		if err != nil {
			return nil, err
		}
		product.TotalStock = total
	}
	return product, nil
}

func validKind(kind string) bool {
	for _, k := range constants.ProductKinds {
		if k == kind {
			return true
		}
	}
	return false
}
