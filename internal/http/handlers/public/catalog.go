package public

import (
	"errors"

	"github.com/stitchline/stitchline-server/internal/http/handlers/shared"
	"github.com/stitchline/stitchline-server/internal/http/response"
	"github.com/stitchline/stitchline-server/internal/repository"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts returns the storefront catalog, active products only.
func (h *Handler) ListProducts(c *gin.Context) {
	page := shared.ParsePagination(c)
	filter := repository.ProductFilter{
		Kind:       c.Query("kind"),
		Keyword:    c.Query("q"),
		OnlyActive: true,
		InStock:    c.Query("in_stock") == "true",
	}

	products, total, err := h.ProductService.List(filter, page)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list products", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"products": products}, shared.BuildPagination(page, total))
}

// GetProduct returns one product by slug.
func (h *Handler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")
	product, err := h.ProductService.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to load product", err)
		return
	}
	response.Success(c, gin.H{"product": product})
}
