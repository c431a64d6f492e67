package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nail-preview-backend/internal/looks"
	"nail-preview-backend/internal/middleware"
	"nail-preview-backend/internal/models"
	"nail-preview-backend/internal/supabase"
)

// SaveLookRequest is the REST body for persisting a look.
type SaveLookRequest struct {
	ColorName     string `json:"color_name"`
	ColorHex      string `json:"color_hex"`
	ShapeName     string `json:"shape_name"`
	Brand         string `json:"brand,omitempty"`
	ProductLine   string `json:"product_line,omitempty"`
	ShadeCode     string `json:"shade_code,omitempty"`
	Collection    string `json:"collection,omitempty"`
	SwatchURL     string `json:"swatch_url,omitempty"`
	Finish        string `json:"finish,omitempty"`
	SourceCatalog string `json:"source_catalog,omitempty"`

	OriginalImage    string `json:"original_image"`
	TransformedImage string `json:"transformed_image"`
}

type LooksHandler struct {
	service *looks.Service
	log     zerolog.Logger
}

func NewLooksHandler(service *looks.Service, logger zerolog.Logger) *LooksHandler {
	return &LooksHandler{
		service: service,
		log:     logger,
	}
}

func (h *LooksHandler) ListLooks(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	resolved, err := h.service.ListResolved(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list looks failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list looks"})
		return
	}

	c.JSON(http.StatusOK, models.LooksListResponse{Looks: resolved})
}

func (h *LooksHandler) SaveLook(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	var req SaveLookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.OriginalImage == "" || req.TransformedImage == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "original_image and transformed_image are required"})
		return
	}

	saved, err := h.service.SaveNow(userID, looks.SaveInput{
		ColorName:        req.ColorName,
		ColorHex:         req.ColorHex,
		ShapeName:        req.ShapeName,
		Brand:            req.Brand,
		ProductLine:      req.ProductLine,
		ShadeCode:        req.ShadeCode,
		Collection:       req.Collection,
		SwatchURL:        req.SwatchURL,
		Finish:           req.Finish,
		SourceCatalog:    req.SourceCatalog,
		OriginalImage:    req.OriginalImage,
		TransformedImage: req.TransformedImage,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("save look failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save look"})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

func (h *LooksHandler) DeleteLook(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	lookID, err := uuid.Parse(c.Param("look_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid look id"})
		return
	}

	if err := h.service.Delete(lookID, userID); err != nil {
		if errors.Is(err, supabase.ErrLookNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "look not found"})
			return
		}
		h.log.Error().Err(err).Str("look_id", lookID.String()).Msg("delete look failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete look"})
		return
	}

	c.Status(http.StatusNoContent)
}

func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}

	return userID, true
}
