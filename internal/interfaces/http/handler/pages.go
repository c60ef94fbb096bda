package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/zeniva/backend/internal/domain/identity"
)

// PageHandler answers gated page requests. The page trees are rendered by
// the frontend; the back office only decides who may see them, so a request
// that passes the gate gets the space it landed in.
type PageHandler struct {
	BaseHandler
	space identity.Space
}

// NewPageHandler creates a page handler for one space
func NewPageHandler(space identity.Space) *PageHandler {
	return &PageHandler{space: space}
}

// PageResponse tells the frontend which space a page belongs to
type PageResponse struct {
	Space string `json:"space" example:"agent"`
	Home  string `json:"home" example:"/agent"`
	Path  string `json:"path" example:"/agent/trips"`
}

// Serve godoc
// @ID           servePage
// @Summary      Gated page
// @Description  Page trees /agent, /partner and /traveler. Anonymous visitors are redirected to /login, visitors from another space to their own home.
// @Tags         pages
// @Produce      json
// @Success      200 {object} dto.Response{data=PageResponse}
// @Failure      302
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /agent/{path} [get]
func (h *PageHandler) Serve(c *gin.Context) {
	h.Success(c, PageResponse{
		Space: string(h.space),
		Home:  h.space.HomePath(),
		Path:  c.Request.URL.Path,
	})
}
