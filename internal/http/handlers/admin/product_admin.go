package admin

import (
	"errors"

	"github.com/stitchline/stitchline-server/internal/http/handlers/shared"
	"github.com/stitchline/stitchline-server/internal/http/response"
	"github.com/stitchline/stitchline-server/internal/repository"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts returns the catalog including inactive products.
func (h *Handler) ListProducts(c *gin.Context) {
	page := shared.ParsePagination(c)
	filter := repository.ProductFilter{
		Kind:    c.Query("kind"),
		Keyword: c.Query("q"),
	}

	products, total, err := h.ProductService.List(filter, page)
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}
	response.SuccessWithPage(c, products, shared.BuildPagination(page, total))
}

// GetProduct returns one product with variations and sizes.
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.ProductService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.Success(c, product)
}

// CreateProduct adds a product with its variations.
func (h *Handler) CreateProduct(c *gin.Context) {
	var input service.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Create(input)
	if err != nil {
		respondCatalogError(c, err, "product create failed")
		return
	}
	response.Success(c, product)
}

// UpdateProduct replaces a product definition, variations included.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Update(id, input)
	if err != nil {
		respondCatalogError(c, err, "product update failed")
		return
	}
	response.Success(c, product)
}

type restockRequest struct {
	VariationIndex int    `json:"variation_index"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity" binding:"required"`
}

// RestockProduct adds stock to one variation or size bucket.
func (h *Handler) RestockProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Restock(id, req.VariationIndex, req.Size, req.Quantity)
	if err != nil {
		respondCatalogError(c, err, "restock failed")
		return
	}

	requestLog(c).Infow("product_restocked",
		"product_id", id,
		"variation_index", req.VariationIndex,
		"size", req.Size,
		"quantity", req.Quantity,
		"admin", getAdminUsername(c))
	response.Success(c, product)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetProductActive toggles storefront visibility.
func (h *Handler) SetProductActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.SetActive(id, *req.Active)
	if err != nil {
		respondCatalogError(c, err, "product update failed")
		return
	}
	response.Success(c, product)
}

// DeleteProduct soft deletes a product.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.ProductService.Delete(id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product delete failed", err)
		return
	}
	response.Success(c, nil)
}

func respondCatalogError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "product not found", nil)
	case errors.Is(err, service.ErrPriceInvalid):
		respondError(c, response.CodeBadRequest, "invalid price", nil)
	case errors.Is(err, service.ErrProductKindInvalid):
		respondError(c, response.CodeBadRequest, "unknown product kind", nil)
	case errors.Is(err, service.ErrVariationsInvalid):
		respondError(c, response.CodeBadRequest, "invalid variation set", nil)
	case errors.Is(err, service.ErrVariationNotFound):
		respondError(c, response.CodeBadRequest, "variation not found", nil)
	case errors.Is(err, service.ErrSizeNotFound):
		respondError(c, response.CodeBadRequest, "size not found", nil)
	case errors.Is(err, service.ErrSizeRequired):
		respondError(c, response.CodeBadRequest, "size buckets are required for this product kind", nil)
	case errors.Is(err, service.ErrSizeNotAllowed):
		respondError(c, response.CodeBadRequest, "size buckets are not allowed for this product kind", nil)
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(c, response.CodeBadRequest, "invalid quantity", nil)
	default:
		respondError(c, response.CodeInternal, fallback, err)
	}
}
