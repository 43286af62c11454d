package captcha

import (
	"net/http"
	"strconv"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Registrar ties the captcha service into the HTTP wrapper
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the captcha service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the captcha routes to the router group. The shell holds
// the generated answer and reports back pass/fail; the core only tracks
// verification state and lockouts.
func (r *Registrar) Register(g *gin.RouterGroup) {
	svc := NewService(r.appCtx, nil)
	h := &handler{svc: svc}

	g.GET("/captcha/challenge", h.challenge)
	g.GET("/captcha/:id/status", h.status)
	g.POST("/captcha/:id/verify", h.verify)
	g.POST("/captcha/:id/failures", h.failure)
}

type handler struct {
	svc *Service
}

func (h *handler) challenge(c *gin.Context) {
	ch := h.svc.Generate()
	c.JSON(http.StatusOK, gin.H{"question": ch.Question, "answer": ch.Answer})
}

func (h *handler) status(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	verified, err := h.svc.IsVerified(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": verified})
}

func (h *handler) verify(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Verify(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

func (h *handler) failure(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	attempts, locked, err := h.svc.RecordFailure(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts, "locked": locked})
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uint64"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}
