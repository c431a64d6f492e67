package transform

import (
	"context"
	"encoding/base64"

	"nail-preview-backend/internal/imaging"
)

// MockModelName marks results produced by the passthrough fallback so
// callers can tell a degraded result from a real one.
const MockModelName = "mock-passthrough"

// mockTransform keeps the flow alive when the model is unreachable: it
// returns the source image unchanged after a short artificial delay. The
// result is flagged Degraded so the caller can show an indicator instead of
// presenting the untouched photo as transformed.
func (c *Client) mockTransform(ctx context.Context, req Request) (*Result, error) {
	if c.mockDelay > 0 {
		if err := sleepCtx(ctx, c.mockDelay); err != nil {
			return nil, err
		}
	}

	image := imaging.Normalize(req.ImageData)
	payload := base64.StdEncoding.EncodeToString(image.Bytes)

	return &Result{
		ImageDataURL: imaging.DataURL(image.MimeType, payload),
		Model:        MockModelName,
		Degraded:     true,
	}, nil
}
