package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"nail-preview-backend/internal/imaging"
	"nail-preview-backend/internal/models"
)

// callProxy posts the request to the configured proxy endpoint. The proxy is
// authoritative: any failure here fails the whole transformation, there is no
// fallback past it.
func (c *Client) callProxy(ctx context.Context, req Request) (*Result, error) {
	attrs := req.Attributes
	body := models.TransformRequest{
		ImageBase64: imaging.Sanitize(req.ImageData),
		MimeType:    imaging.DetectMimeType(req.ImageData),
		ColorHex:    attrs.ColorHex,
		ColorName:   attrs.ColorName,
		ShapeName:   attrs.ShapeName,
		LengthName:  attrs.LengthName,
		Finish:      attrs.Finish,
		Brand:       attrs.Brand,
		ProductLine: attrs.ProductLine,
		Collection:  attrs.Collection,
		ShadeCode:   attrs.ShadeCode,
		ShadeName:   attrs.ShadeName,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("transform: marshal proxy request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, defaultProxyTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.proxyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("transform: create proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transform: proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transform: read proxy response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("transform: proxy returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed models.TransformResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("transform: decode proxy response: %w, body: %s", err, string(respBody))
	}
	if parsed.Image == "" {
		return nil, fmt.Errorf("transform: proxy response has no image")
	}

	return &Result{
		ImageDataURL: parsed.Image,
		Model:        parsed.Model,
		Usage:        parsed.Usage,
	}, nil
}
