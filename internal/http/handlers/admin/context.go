package admin

import (
	"strconv"

	"github.com/stitchline/stitchline-server/internal/http/handlers/shared"
	"github.com/stitchline/stitchline-server/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, "admin_id")
}

func getAdminUsername(c *gin.Context) string {
	if value, exists := c.Get("admin_username"); exists {
		if username, ok := value.(string); ok {
			return username
		}
	}
	return "admin"
}

// parseIDParam reads a positive integer path parameter, writing the
// error response itself when the value is unusable.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
