package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nail-preview-backend/internal/gemini"
	"nail-preview-backend/internal/handlers"
	"nail-preview-backend/internal/imaging"
	"nail-preview-backend/internal/middleware"
	"nail-preview-backend/internal/models"
	"nail-preview-backend/internal/transform"
)

type stubEngine struct {
	lastPrompt string
	lastImage  imaging.Image
	result     *gemini.Result
	err        error
}

func (s *stubEngine) EditImage(_ context.Context, promptText string, image imaging.Image) (*gemini.Result, error) {
	s.lastPrompt = promptText
	s.lastImage = image
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newGatewayRouter(engine transform.DirectTransport) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
	})

	handler := handlers.NewTransformHandler(engine, "gemini-2.5-flash-image", zerolog.Nop())
	gateway := router.Group("/v1", middleware.GatewayHeaders())
	gateway.POST("/transform", handler.Transform)
	gateway.OPTIONS("/transform", func(c *gin.Context) {})
	return router
}

func transformBody(t *testing.T, overrides map[string]interface{}) *bytes.Reader {
	t.Helper()
	payload := map[string]interface{}{
		"imageBase64": base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0}),
		"colorHex":    "#FF00AA",
		"colorName":   "Pink Pop",
		"shapeName":   "Almond",
	}
	for key, value := range overrides {
		if value == nil {
			delete(payload, key)
			continue
		}
		payload[key] = value
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestTransformEndpoint_Success(t *testing.T) {
	engine := &stubEngine{result: &gemini.Result{
		ImageDataURL: "data:image/png;base64,aGVsbG8=",
		Model:        "gemini-2.5-flash-image",
		Usage:        &gemini.Usage{TotalTokens: 42},
	}}
	router := newGatewayRouter(engine)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transform", transformBody(t, nil))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp models.TransformResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Image, "data:"))
	assert.Equal(t, "#FF00AA", resp.ColorHex)
	assert.Equal(t, "Almond", resp.ShapeName)
	assert.Equal(t, "Medium", resp.LengthName, "length defaults when omitted")
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int32(42), resp.Usage.TotalTokens)

	// The gateway rebuilds the prompt itself rather than trusting the client.
	assert.Contains(t, engine.lastPrompt, "#FF00AA")
	assert.Contains(t, engine.lastPrompt, "Almond")
}

func TestTransformEndpoint_MissingFields(t *testing.T) {
	router := newGatewayRouter(&stubEngine{})

	for _, field := range []string{"imageBase64", "colorHex", "shapeName"} {
		t.Run(field, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/transform", transformBody(t, map[string]interface{}{field: nil}))
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, field)
		})
	}
}

func TestTransformEndpoint_InvalidJSON(t *testing.T) {
	router := newGatewayRouter(&stubEngine{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transform", strings.NewReader("{not json"))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransformEndpoint_NoEngineConfigured(t *testing.T) {
	router := newGatewayRouter(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transform", transformBody(t, nil))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "not configured")
}

func TestTransformEndpoint_UpstreamNoImage(t *testing.T) {
	router := newGatewayRouter(&stubEngine{err: gemini.ErrNoImage})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transform", transformBody(t, nil))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "missing image")
}

func TestTransformEndpoint_UpstreamFailure(t *testing.T) {
	router := newGatewayRouter(&stubEngine{err: fmt.Errorf("model quota exceeded")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transform", transformBody(t, nil))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "model quota exceeded")
}

func TestTransformEndpoint_MalformedHexStillForwarded(t *testing.T) {
	engine := &stubEngine{result: &gemini.Result{ImageDataURL: "data:image/png;base64,aGVsbG8="}}
	router := newGatewayRouter(engine)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transform", transformBody(t, map[string]interface{}{"colorHex": "salmon"}))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, engine.lastPrompt, "salmon")
}

func TestTransformEndpoint_ClientMimeOverride(t *testing.T) {
	engine := &stubEngine{result: &gemini.Result{ImageDataURL: "data:image/png;base64,aGVsbG8="}}
	router := newGatewayRouter(engine)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transform", transformBody(t, map[string]interface{}{"mimeType": "image/heic"}))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/heic", engine.lastImage.MimeType)
}

func TestTransformEndpoint_Preflight(t *testing.T) {
	router := newGatewayRouter(&stubEngine{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/transform", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestTransformEndpoint_MethodNotAllowed(t *testing.T) {
	router := newGatewayRouter(&stubEngine{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/transform", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
