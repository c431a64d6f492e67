// Package gemini wraps the Gemini image model behind a small client used by
// both the transform pipeline and the HTTP gateway.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"nail-preview-backend/internal/imaging"
)

// ErrNoImage is returned when the model answers without an inline image
// part. It is terminal: the response was well-formed, retrying will not
// produce an image.
var ErrNoImage = errors.New("no image in response")

const defaultModel = "gemini-2.5-flash-image"

// Usage carries the token accounting reported by the model, when present.
type Usage struct {
	PromptTokens int32 `json:"prompt_tokens"`
	OutputTokens int32 `json:"output_tokens"`
	TotalTokens  int32 `json:"total_tokens"`
}

// Result is one generated image plus billing metadata.
type Result struct {
	ImageDataURL string
	Model        string
	Usage        *Usage
}

// Client is an explicitly constructed Gemini client. It is created once at
// startup and injected into its consumers; there is no lazy module-level
// instance.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a Gemini client for the given API key and model.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.model
}

// EditImage sends the prompt together with the source image and returns the
// first inline image from the first candidate as a data URL.
func (c *Client) EditImage(ctx context.Context, promptText string, image imaging.Image) (*Result, error) {
	if len(image.Bytes) == 0 {
		return nil, fmt.Errorf("gemini: empty image payload")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(promptText),
			genai.NewPartFromBytes(image.Bytes, image.MimeType),
		}, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(callCtx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	return ExtractImage(resp, c.model)
}

// ExtractImage scans a generation response for the first inline image part
// and renders it as a data URL.
func ExtractImage(resp *genai.GenerateContentResponse, model string) (*Result, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}

	var usage *Usage
	if resp.UsageMetadata != nil {
		usage = &Usage{
			PromptTokens: resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if strings.TrimSpace(mime) == "" {
			mime = imaging.MimePNG
		}
		encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
		return &Result{
			ImageDataURL: imaging.DataURL(mime, encoded),
			Model:        model,
			Usage:        usage,
		}, nil
	}

	return nil, ErrNoImage
}
