// Package transform orchestrates a nail color transformation: it builds the
// prompt, picks a transport (HTTP proxy or direct Gemini call), bounds
// retries on the direct path and falls back to a passthrough mock when the
// model is unreachable.
package transform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"nail-preview-backend/internal/gemini"
	"nail-preview-backend/internal/imaging"
	"nail-preview-backend/internal/prompt"
)

// ErrProxyRequired is returned when no proxy endpoint is configured and the
// runtime is not allowed to hold the model API key.
var ErrProxyRequired = errors.New("transform: no proxy configured and direct model calls are disallowed; set TRANSFORM_PROXY_URL")

const (
	defaultProxyTimeout  = 30 * time.Second
	defaultRetryAttempts = 2
	defaultRetryDelay    = time.Second
	defaultMockDelay     = 1500 * time.Millisecond
)

// Request describes one transformation.
type Request struct {
	// ImageData is the source image as base64, with or without a data-URL
	// prefix. Required.
	ImageData  string
	Attributes prompt.Attributes
}

// Result is the transformed image. Degraded marks an image produced by the
// mock fallback rather than the model; callers must surface that to the
// user instead of presenting the untouched photo as transformed.
type Result struct {
	ImageDataURL string
	Model        string
	Usage        *gemini.Usage
	Degraded     bool
}

// DirectTransport is the direct model call. *gemini.Client satisfies it.
type DirectTransport interface {
	EditImage(ctx context.Context, promptText string, image imaging.Image) (*gemini.Result, error)
}

// Options configure a Client. The zero value of everything except Direct and
// ProxyURL is usable.
type Options struct {
	// ProxyURL, when set, makes the proxy the only transport: its
	// failures are final and the direct path is never attempted.
	ProxyURL string

	// AllowDirectCalls gates the direct transport. Hosts that must not
	// hold a private API key run with this off and a proxy configured.
	AllowDirectCalls bool

	Direct     DirectTransport
	HTTPClient *http.Client

	RetryAttempts int
	RetryDelay    time.Duration
	MockDelay     time.Duration

	Logger zerolog.Logger
}

// Client routes transformation requests. Construct it once and share it; it
// holds no per-request state.
type Client struct {
	proxyURL      string
	allowDirect   bool
	direct        DirectTransport
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	mockDelay     time.Duration
	log           zerolog.Logger
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultProxyTimeout}
	}
	retryAttempts := opts.RetryAttempts
	if retryAttempts <= 0 {
		retryAttempts = defaultRetryAttempts
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	// A negative MockDelay disables the artificial delay (tests).
	mockDelay := opts.MockDelay
	if mockDelay == 0 {
		mockDelay = defaultMockDelay
	} else if mockDelay < 0 {
		mockDelay = 0
	}

	return &Client{
		proxyURL:      opts.ProxyURL,
		allowDirect:   opts.AllowDirectCalls,
		direct:        opts.Direct,
		httpClient:    httpClient,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		mockDelay:     mockDelay,
		log:           opts.Logger,
	}
}

// Transform runs one transformation end to end.
func (c *Client) Transform(ctx context.Context, req Request) (*Result, error) {
	if req.ImageData == "" {
		return nil, fmt.Errorf("transform: image data is required")
	}

	// A malformed color is logged, not rejected: the prompt proceeds with
	// the literal string and the model does its best.
	if _, err := prompt.ParseHexColor(req.Attributes.ColorHex); err != nil {
		c.log.Warn().Str("color_hex", req.Attributes.ColorHex).Msg("proceeding with malformed color hex")
	}

	promptText := prompt.Build(req.Attributes)

	if c.proxyURL != "" {
		c.log.Debug().Str("proxy_url", c.proxyURL).Msg("transform: using proxy transport")
		return c.callProxy(ctx, req)
	}

	if !c.allowDirect || c.direct == nil {
		return nil, ErrProxyRequired
	}

	image := imaging.Normalize(req.ImageData)

	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		res, err := c.direct.EditImage(ctx, promptText, image)
		if err == nil {
			return &Result{
				ImageDataURL: res.ImageDataURL,
				Model:        res.Model,
				Usage:        res.Usage,
			}, nil
		}
		if errors.Is(err, gemini.ErrNoImage) {
			// The model answered without an image; retrying the same
			// request will not change that.
			return nil, err
		}
		lastErr = err
		c.log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", c.retryAttempts).
			Msg("transform: direct call failed")
		if attempt < c.retryAttempts {
			if err := sleepCtx(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}
	}

	c.log.Warn().Err(lastErr).Msg("transform: direct path exhausted, falling back to mock passthrough")
	return c.mockTransform(ctx, req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
