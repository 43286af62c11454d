package moderation

import (
	"net/http"
	"strconv"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/server"

	"github.com/gin-gonic/gin"
)

// Registrar ties the moderation service into the HTTP wrapper
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the moderation service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the moderation routes; the admin subset sits behind the
// API-key middleware.
func (r *Registrar) Register(g *gin.RouterGroup) {
	svc := NewService(r.appCtx)
	h := &handler{svc: svc}

	g.POST("/complaints", h.file)
	g.GET("/complaints/quota/:id", h.quota)

	admin := g.Group("/admin", server.AdminAuth(r.appCtx.Cfg.Moderation.AdminAPIKeyHash))
	admin.GET("/complaints", h.pending)
	admin.POST("/complaints/:ref/resolve", h.resolve)
}

type handler struct {
	svc *Service
}

type fileRequest struct {
	ReporterID uint64 `json:"reporter_id"`
	TargetID   uint64 `json:"target_id"`
	Reason     string `json:"reason"`
}

func (h *handler) file(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ReporterID == 0 || req.TargetID == 0 || req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.File(c.Request.Context(), req.ReporterID, req.TargetID, req.Reason)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"duplicate":   result.Outcome == RejectedDuplicate,
		"reference":   result.Reference,
		"auto_banned": result.AutoBanned,
	})
}

func (h *handler) quota(c *gin.Context) {
	reporterID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uint64"})
		return
	}

	allowed, reason, err := h.svc.CanFile(c.Request.Context(), reporterID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed": allowed, "reason": reason})
}

func (h *handler) pending(c *gin.Context) {
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}

	complaints, err := h.svc.Pending(c.Request.Context(), limit)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, complaints)
}

type resolveRequest struct {
	AdminID uint64 `json:"admin_id"`
}

func (h *handler) resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AdminID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resolved, err := h.svc.Resolve(c.Request.Context(), c.Param("ref"), req.AdminID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !resolved {
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found or already resolved"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
