package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"nail-preview-backend/internal/gemini"
	"nail-preview-backend/internal/imaging"
	"nail-preview-backend/internal/models"
	"nail-preview-backend/internal/prompt"
	"nail-preview-backend/internal/transform"
)

const upstreamTimeout = 30 * time.Second

// TransformHandler is the stateless transform gateway: it validates the
// request, rebuilds the prompt with the shared builder and forwards the image
// to the model.
type TransformHandler struct {
	engine transform.DirectTransport
	model  string
	log    zerolog.Logger
}

// NewTransformHandler wires the gateway. engine may be nil when the server
// has no model API key; requests then fail with a configuration error.
func NewTransformHandler(engine transform.DirectTransport, model string, logger zerolog.Logger) *TransformHandler {
	return &TransformHandler{
		engine: engine,
		model:  model,
		log:    logger,
	}
}

func (h *TransformHandler) Transform(c *gin.Context) {
	var req models.TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if req.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "imageBase64 is required"})
		return
	}
	if req.ColorHex == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "colorHex is required"})
		return
	}
	if req.ShapeName == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "shapeName is required"})
		return
	}

	if h.engine == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "server is not configured with a model API key"})
		return
	}

	// Malformed colors are logged and forwarded as-is; the model copes
	// better with a strange color string than users cope with a rejection.
	if _, err := prompt.ParseHexColor(req.ColorHex); err != nil {
		h.log.Warn().Str("color_hex", req.ColorHex).Msg("gateway: proceeding with malformed color hex")
	}

	promptText := prompt.Build(prompt.Attributes{
		ColorHex:    req.ColorHex,
		ColorName:   req.ColorName,
		ShapeName:   req.ShapeName,
		LengthName:  req.LengthName,
		Finish:      req.Finish,
		Brand:       req.Brand,
		ProductLine: req.ProductLine,
		Collection:  req.Collection,
		ShadeCode:   req.ShadeCode,
		ShadeName:   req.ShadeName,
	})

	image := imaging.Normalize(req.ImageBase64)
	if len(image.Bytes) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "imageBase64 is not decodable"})
		return
	}
	if req.MimeType != "" {
		image.MimeType = req.MimeType
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), upstreamTimeout)
	defer cancel()

	result, err := h.engine.EditImage(ctx, promptText, image)
	if err != nil {
		if errors.Is(err, gemini.ErrNoImage) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "missing image in model response"})
			return
		}
		h.log.Error().Err(err).Msg("gateway: upstream call failed")
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: fmt.Sprintf("upstream transform failed: %v", err)})
		return
	}

	lengthName := req.LengthName
	if lengthName == "" {
		lengthName = "Medium"
	}

	c.JSON(http.StatusOK, models.TransformResponse{
		Image:      result.ImageDataURL,
		Model:      result.Model,
		ColorHex:   req.ColorHex,
		ColorName:  req.ColorName,
		ShapeName:  req.ShapeName,
		LengthName: lengthName,
		Usage:      result.Usage,
	})
}
