package public

import "github.com/stitchline/stitchline-server/internal/provider"

// Handler serves the storefront and guest API.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
