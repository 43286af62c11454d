package match

import (
	"net/http"
	"strconv"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Registrar ties the match service into the HTTP wrapper
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the match routes to the router group
func (r *Registrar) Register(g *gin.RouterGroup) {
	svc := NewService(r.appCtx)
	h := &handler{svc: svc}

	g.POST("/likes", h.recordLike)
	g.GET("/matches/:id", h.matches)
	g.GET("/admirers/:id/count", h.admirerCount)
}

type handler struct {
	svc *Service
}

type recordLikeRequest struct {
	FromUser uint64 `json:"from_user"`
	ToUser   uint64 `json:"to_user"`
}

func (h *handler) recordLike(c *gin.Context) {
	var req recordLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FromUser == 0 || req.ToUser == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.RecordLike(c.Request.Context(), req.FromUser, req.ToUser)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_match": result == NewMatch})
}

func (h *handler) matches(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uint64"})
		return
	}

	var token *string
	if t := c.Query("page_token"); t != "" {
		token = &t
	}
	limit := 10
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}

	entries, nextToken, err := h.svc.Matches(c.Request.Context(), userID, token, limit)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	type matchItem struct {
		UserID    uint64 `json:"user_id"`
		Name      string `json:"name"`
		Age       int    `json:"age"`
		City      string `json:"city"`
		MatchedAt int64  `json:"matched_at"`
	}
	items := make([]matchItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, matchItem{
			UserID:    e.Profile.UserID,
			Name:      e.Profile.Name,
			Age:       e.Profile.Age,
			City:      e.Profile.CurrentCity,
			MatchedAt: e.MatchedAt.UnixMilli(),
		})
	}

	resp := gin.H{"matches": items}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) admirerCount(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uint64"})
		return
	}

	count, err := h.svc.CountAdmirers(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
