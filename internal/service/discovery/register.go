package discovery

import (
	"net/http"
	"strconv"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Registrar ties the discovery service into the HTTP wrapper
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the discovery service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the discovery routes to the router group
func (r *Registrar) Register(g *gin.RouterGroup) {
	svc := NewService(r.appCtx, nil)
	h := &handler{svc: svc}

	g.GET("/discover/:id/next", h.next)
	g.POST("/views", h.markViewed)
}

type handler struct {
	svc *Service
}

func (h *handler) next(c *gin.Context) {
	viewerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uint64"})
		return
	}

	candidate, err := h.svc.Next(c.Request.Context(), viewerID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if candidate == nil {
		c.JSON(http.StatusOK, gin.H{"candidate": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidate": candidate})
}

type markViewedRequest struct {
	ViewerID uint64 `json:"viewer_id"`
	ViewedID uint64 `json:"viewed_id"`
}

func (h *handler) markViewed(c *gin.Context) {
	var req markViewedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ViewerID == 0 || req.ViewedID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.MarkViewed(c.Request.Context(), req.ViewerID, req.ViewedID); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
