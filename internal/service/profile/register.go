package profile

import (
	"net/http"
	"strconv"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/repository"
	"github.com/antonkh/kupid/internal/service/captcha"

	"github.com/gin-gonic/gin"
)

// Registrar ties the profile service into the HTTP wrapper
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the profile service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the profile routes to the router group
func (r *Registrar) Register(g *gin.RouterGroup) {
	svc := NewService(r.appCtx, captcha.NewService(r.appCtx, nil))
	h := &handler{svc: svc}

	g.POST("/profiles", h.register)
	g.GET("/profiles/:id", h.get)
	g.PUT("/profiles/:id/field", h.updateField)
	g.POST("/profiles/:id/deactivate", h.deactivate)
	g.POST("/profiles/:id/reactivate", h.reactivate)
	g.POST("/profiles/:id/photos", h.addPhoto)
	g.GET("/profiles/:id/photos", h.photos)
}

type handler struct {
	svc *Service
}

func (h *handler) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type fieldUpdateRequest struct {
	Field string   `json:"field"`
	Text  *string  `json:"text,omitempty"`
	Int   *int     `json:"int,omitempty"`
	Bool  *bool    `json:"bool,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
}

func (h *handler) updateField(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req fieldUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	field := repository.ProfileField(req.Field)
	value, err := fieldValue(field, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.svc.UpdateField(c.Request.Context(), id, field, value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": req.Field})
}

// fieldValue maps the typed request slots onto the value UpdateField expects
// for the given field.
func fieldValue(field repository.ProfileField, req *fieldUpdateRequest) (interface{}, error) {
	switch field {
	case repository.FieldName, repository.FieldBio, repository.FieldDatingGoal,
		repository.FieldCurrentCity, repository.FieldSearchCity:
		if req.Text == nil {
			return nil, apperr.Invalid(string(field), "expected a text value")
		}
		return *req.Text, nil
	case repository.FieldAge, repository.FieldSearchRadius:
		if req.Int == nil {
			return nil, apperr.Invalid(string(field), "expected an integer value")
		}
		return *req.Int, nil
	case repository.FieldSearchEverywhere:
		if req.Bool == nil {
			return nil, apperr.Invalid(string(field), "expected a boolean value")
		}
		return *req.Bool, nil
	case repository.FieldCurrentCoords, repository.FieldSearchCoords:
		return repository.Coords{Lat: req.Lat, Lon: req.Lon}, nil
	default:
		return nil, apperr.Invalid(string(field), "field is not editable")
	}
}

func (h *handler) deactivate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": false})
}

func (h *handler) reactivate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Reactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true})
}

type addPhotoRequest struct {
	PhotoID string `json:"photo_id"`
	Main    bool   `json:"main"`
}

func (h *handler) addPhoto(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req addPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PhotoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.AddPhoto(c.Request.Context(), id, req.PhotoID, req.Main); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": req.PhotoID})
}

func (h *handler) photos(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	photos, err := h.svc.Photos(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, photos)
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
