package service

import (
	"strings"

	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/repository"
)

// maxCartLineQuantity caps a single line so a typo cannot reserve a
// whole size run.
const maxCartLineQuantity = 20

// CartService owns cart reads and writes for both accounts and guest
// sessions.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates the cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// CartOwner identifies whose cart is being touched.
type CartOwner struct {
	UserID    uint
	SessionID string
}

// AddItemInput is the add-to-cart payload.
type AddItemInput struct {
	ProductID      uint   `json:"product_id" binding:"required"`
	VariationIndex int    `json:"variation_index"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity" binding:"required"`
}

// List returns the owner's cart lines with products preloaded.
func (s *CartService) List(owner CartOwner) ([]models.CartItem, error) {
	if owner.UserID != 0 {
		return s.cartRepo.ListByUser(owner.UserID)
	}
	if owner.SessionID == "" {
		return []models.CartItem{}, nil
	}
	return s.cartRepo.ListBySession(owner.SessionID)
}

// AddItem validates the selection against the catalog and adds it,
// merging into an existing line for the same selection.
func (s *CartService) AddItem(owner CartOwner, input AddItemInput) (*models.CartItem, error) {
	if input.Quantity <= 0 || input.Quantity > maxCartLineQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Active {
		return nil, ErrProductNotFound
	}

	size := strings.ToUpper(strings.TrimSpace(input.Size))
	// variation indexes are 1-based; an omitted index means the first
	// variation
	variationIndex := input.VariationIndex
	if variationIndex == 0 {
		variationIndex = 1
	}
	variation := findVariation(product, variationIndex)
	if variation == nil {
		return nil, ErrVariationNotFound
	}
	if SizeKeyedKind(product.Kind) {
		if size == "" {
			return nil, ErrSizeRequired
		}
		sizeRow := findSize(variation, size)
		if sizeRow == nil {
			return nil, ErrSizeNotFound
		}
		if sizeRow.Stock < input.Quantity {
			return nil, ErrOutOfStock
		}
	} else {
		if size != "" {
			return nil, ErrSizeNotAllowed
		}
		if variation.Stock < input.Quantity {
			return nil, ErrOutOfStock
		}
	}

	existing, err := s.cartRepo.FindLine(owner.UserID, owner.SessionID, input.ProductID, variationIndex, size)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		newQty := existing.Quantity + input.Quantity
		if newQty > maxCartLineQuantity {
			newQty = maxCartLineQuantity
		}
		if err := s.cartRepo.UpdateQuantity(existing.ID, newQty); err != nil {
			return nil, err
		}
		return s.cartRepo.GetByID(existing.ID)
	}

	item := &models.CartItem{
		UserID:         owner.UserID,
		SessionID:      owner.SessionID,
		ProductID:      input.ProductID,
		VariationIndex: variationIndex,
		Size:           size,
		Quantity:       input.Quantity,
	}
	if owner.UserID != 0 {
		item.SessionID = ""
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(item.ID)
}

// UpdateQuantity changes a line's quantity. The line must belong to
// the owner.
func (s *CartService) UpdateQuantity(owner CartOwner, itemID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 || quantity > maxCartLineQuantity {
		return nil, ErrInvalidQuantity
	}
	item, err := s.ownedItem(owner, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.UpdateQuantity(item.ID, quantity); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(item.ID)
}

// RemoveItem deletes a line. The line must belong to the owner.
func (s *CartService) RemoveItem(owner CartOwner, itemID uint) error {
	item, err := s.ownedItem(owner, itemID)
	if err != nil {
		return err
	}
	return s.cartRepo.Delete(item.ID)
}

// Clear empties the owner's cart.
func (s *CartService) Clear(owner CartOwner) error {
	if owner.UserID != 0 {
		return s.cartRepo.ClearByUser(owner.UserID)
	}
	if owner.SessionID == "" {
		return nil
	}
	return s.cartRepo.ClearBySession(owner.SessionID)
}

// MergeGuestCart folds a guest session cart into the account after
// login.
func (s *CartService) MergeGuestCart(sessionID string, userID uint) error {
	if sessionID == "" || userID == 0 {
		return nil
	}
	return s.cartRepo.MergeSessionIntoUser(sessionID, userID)
}

func (s *CartService) ownedItem(owner CartOwner, itemID uint) (*models.CartItem, error) {
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if owner.UserID != 0 {
		if item.UserID != owner.UserID {
			return nil, ErrCartItemNotFound
		}
	} else if item.UserID != 0 || item.SessionID != owner.SessionID {
		return nil, ErrCartItemNotFound
	}
	return item, nil
}
