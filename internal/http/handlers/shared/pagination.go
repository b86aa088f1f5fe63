package shared

import (
	"strconv"

	"github.com/stitchline/stitchline-server/internal/http/response"
	"github.com/stitchline/stitchline-server/internal/repository"

	"github.com/gin-gonic/gin"
)

// ParsePagination reads page and page_size query params with bounds
// applied.
func ParsePagination(c *gin.Context) repository.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	p := repository.Pagination{Page: page, PageSize: pageSize}
	p.Normalize()
	return p
}

// BuildPagination converts a page and total into response metadata.
func BuildPagination(page repository.Pagination, total int64) response.Pagination {
	totalPage := total / int64(page.PageSize)
	if total%int64(page.PageSize) != 0 {
		totalPage++
	}
	return response.Pagination{
		Page:      page.Page,
		PageSize:  page.PageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
