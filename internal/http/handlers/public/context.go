package public

import (
	"github.com/stitchline/stitchline-server/internal/http/handlers/shared"
	"github.com/stitchline/stitchline-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	cartSessionHeader = "X-Cart-Session"
	cartSessionCookie = "cart_session"
	cartSessionMaxAge = 30 * 24 * 3600
)

func respondError(c *gin.Context, code int, msg string, err error) {
	shared.RespondError(c, code, msg, err)
}

func getUserID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, "user_id")
}

// optionalUserID reads the authenticated user when present without
// failing the request for guests.
func optionalUserID(c *gin.Context) uint {
	if value, ok := c.Get("user_id"); ok {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}

// cartOwner resolves the cart identity: the authenticated user if
// logged in, otherwise a session token minted on first touch.
func cartOwner(c *gin.Context) service.CartOwner {
	if userID := optionalUserID(c); userID != 0 {
		return service.CartOwner{UserID: userID}
	}
	sessionID := c.GetHeader(cartSessionHeader)
	if sessionID == "" {
		if cookie, err := c.Cookie(cartSessionCookie); err == nil {
			sessionID = cookie
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
		c.SetCookie(cartSessionCookie, sessionID, cartSessionMaxAge, "/", "", false, true)
	}
	c.Header(cartSessionHeader, sessionID)
	return service.CartOwner{SessionID: sessionID}
}
