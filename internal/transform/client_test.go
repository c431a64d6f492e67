package transform_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nail-preview-backend/internal/gemini"
	"nail-preview-backend/internal/imaging"
	"nail-preview-backend/internal/models"
	"nail-preview-backend/internal/prompt"
	"nail-preview-backend/internal/transform"
)

type fakeDirect struct {
	calls  atomic.Int32
	result *gemini.Result
	err    error
}

func (f *fakeDirect) EditImage(_ context.Context, _ string, _ imaging.Image) (*gemini.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testImage(t *testing.T) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0, 'J', 'F', 'I', 'F'})
}

func testRequest(t *testing.T) transform.Request {
	return transform.Request{
		ImageData: testImage(t),
		Attributes: prompt.Attributes{
			ColorHex:  "#FF00AA",
			ShapeName: "Almond",
		},
	}
}

func TestTransform_DirectSuccess(t *testing.T) {
	direct := &fakeDirect{result: &gemini.Result{
		ImageDataURL: "data:image/png;base64,AAAA",
		Model:        "gemini-2.5-flash-image",
	}}

	client := transform.NewClient(transform.Options{
		AllowDirectCalls: true,
		Direct:           direct,
		Logger:           zerolog.Nop(),
	})

	result, err := client.Transform(context.Background(), testRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", result.ImageDataURL)
	assert.False(t, result.Degraded)
	assert.Equal(t, int32(1), direct.calls.Load())
}

func TestTransform_RetryBoundThenMockFallback(t *testing.T) {
	direct := &fakeDirect{err: errors.New("upstream unavailable")}

	client := transform.NewClient(transform.Options{
		AllowDirectCalls: true,
		Direct:           direct,
		RetryDelay:       time.Millisecond,
		MockDelay:        -1,
		Logger:           zerolog.Nop(),
	})

	result, err := client.Transform(context.Background(), testRequest(t))
	require.NoError(t, err)

	// Exactly two attempts: not one, not three.
	assert.Equal(t, int32(2), direct.calls.Load())

	assert.True(t, result.Degraded)
	assert.Equal(t, transform.MockModelName, result.Model)

	// The mock pipes the source image back out unchanged.
	want := imaging.DataURL(imaging.MimeJPEG, testImage(t))
	assert.Equal(t, want, result.ImageDataURL)
}

func TestTransform_NoImageIsTerminal(t *testing.T) {
	direct := &fakeDirect{err: gemini.ErrNoImage}

	client := transform.NewClient(transform.Options{
		AllowDirectCalls: true,
		Direct:           direct,
		RetryDelay:       time.Millisecond,
		MockDelay:        -1,
		Logger:           zerolog.Nop(),
	})

	_, err := client.Transform(context.Background(), testRequest(t))
	require.ErrorIs(t, err, gemini.ErrNoImage)
	assert.Equal(t, int32(1), direct.calls.Load(), "terminal errors must not be retried")
}

func TestTransform_DirectDisallowedWithoutProxy(t *testing.T) {
	client := transform.NewClient(transform.Options{
		AllowDirectCalls: false,
		Logger:           zerolog.Nop(),
	})

	_, err := client.Transform(context.Background(), testRequest(t))
	require.ErrorIs(t, err, transform.ErrProxyRequired)
}

func TestTransform_EmptyImageRejected(t *testing.T) {
	client := transform.NewClient(transform.Options{
		AllowDirectCalls: true,
		Direct:           &fakeDirect{},
		Logger:           zerolog.Nop(),
	})

	_, err := client.Transform(context.Background(), transform.Request{})
	require.Error(t, err)
}

func TestTransform_ProxySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req models.TransformRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.ImageBase64)
		assert.NotContains(t, req.ImageBase64, "data:", "proxy payload carries bare base64")
		assert.Equal(t, "#FF00AA", req.ColorHex)

		json.NewEncoder(w).Encode(models.TransformResponse{
			Image: "data:image/png;base64,BBBB",
			Model: "gemini-2.5-flash-image",
		})
	}))
	defer server.Close()

	direct := &fakeDirect{}
	client := transform.NewClient(transform.Options{
		ProxyURL:         server.URL,
		AllowDirectCalls: true,
		Direct:           direct,
		Logger:           zerolog.Nop(),
	})

	result, err := client.Transform(context.Background(), testRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,BBBB", result.ImageDataURL)
	assert.Equal(t, int32(0), direct.calls.Load(), "proxy path must not touch the direct transport")
}

func TestTransform_ProxyFailureIsFinal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
	}))
	defer server.Close()

	direct := &fakeDirect{}
	client := transform.NewClient(transform.Options{
		ProxyURL:         server.URL,
		AllowDirectCalls: true,
		Direct:           direct,
		Logger:           zerolog.Nop(),
	})

	_, err := client.Transform(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(0), direct.calls.Load(), "no fallback past the proxy path")
}

func TestTransform_ProxyMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := transform.NewClient(transform.Options{
		ProxyURL: server.URL,
		Logger:   zerolog.Nop(),
	})

	_, err := client.Transform(context.Background(), testRequest(t))
	require.Error(t, err)
}
