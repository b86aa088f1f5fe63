package service

import (
	"fmt"

	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/models"
)

// StockDispatch resolves how a product kind tracks stock. An unknown
// kind is a hard data-integrity error, never a silent fall-through to
// the direct-stock path.
func StockDispatch(kind string) (sizeKeyed bool, err error) {
	switch kind {
	case constants.ProductKindClothing, constants.ProductKindFootwear, constants.ProductKindHeadwear:
		return true, nil
	case constants.ProductKindAccessory:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrProductKindInvalid, kind)
	}
}

// SizeKeyedKind reports whether a known kind tracks stock per size
// bucket. Accessories track stock directly on each variation instead.
func SizeKeyedKind(kind string) bool {
	sizeKeyed, err := StockDispatch(kind)
	return err == nil && sizeKeyed
}

// ComputeTotalStock sums the product's sellable units from its
// variation tree. The result feeds the denormalized total_stock
// column, which exists for listing filters only and is never the
// source of truth during deduction.
func ComputeTotalStock(product *models.Product) (int, error) {
	if product == nil {
		return 0, nil
	}
	sizeKeyed, err := StockDispatch(product.Kind)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, v := range product.Variations {
		if sizeKeyed {
			for _, s := range v.Sizes {
				if s.Stock > 0 {
					total += s.Stock
				}
			}
		} else if v.Stock > 0 {
			total += v.Stock
		}
	}
	return total, nil
}

// VariationStock sums sellable units for one variation.
func VariationStock(kind string, v *models.ProductVariation) int {
	if v == nil {
		return 0
	}
	if !SizeKeyedKind(kind) {
		if v.Stock > 0 {
			return v.Stock
		}
		return 0
	}
	total := 0
	for _, s := range v.Sizes {
		if s.Stock > 0 {
			total += s.Stock
		}
	}
	return total
}
