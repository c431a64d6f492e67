// Command transform runs the client-side transformation pipeline from the
// terminal: it reads a hand photo, applies the selected polish attributes
// through the configured transport (proxy or direct) and writes the result.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nail-preview-backend/internal/config"
	"nail-preview-backend/internal/gemini"
	"nail-preview-backend/internal/imaging"
	"nail-preview-backend/internal/prompt"
	"nail-preview-backend/internal/transform"
)

func main() {
	imagePath := flag.String("image", "", "path to the source hand photo")
	outPath := flag.String("out", "transformed.jpg", "path to write the transformed image")
	colorHex := flag.String("color", "#CC0000", "polish color as #RRGGBB")
	colorName := flag.String("color-name", "", "display name of the color")
	shapeName := flag.String("shape", "Keep Current Shape", "target nail shape")
	lengthName := flag.String("length", "Medium", "target nail length")
	finish := flag.String("finish", "", "polish finish (glossy, matte, chrome, ...)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *imagePath == "" {
		log.Fatal().Msg("-image is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	raw, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *imagePath).Msg("failed to read image")
	}

	ctx := context.Background()

	var direct transform.DirectTransport
	if cfg.TransformProxyURL == "" && cfg.AllowDirectCalls && cfg.GeminiAPIKey != "" {
		engine, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, 30*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Gemini client")
		}
		direct = engine
	}

	client := transform.NewClient(transform.Options{
		ProxyURL:         cfg.TransformProxyURL,
		AllowDirectCalls: cfg.AllowDirectCalls,
		Direct:           direct,
		Logger:           log.Logger,
	})

	result, err := client.Transform(ctx, transform.Request{
		ImageData: base64.StdEncoding.EncodeToString(raw),
		Attributes: prompt.Attributes{
			ColorHex:   *colorHex,
			ColorName:  *colorName,
			ShapeName:  *shapeName,
			LengthName: *lengthName,
			Finish:     *finish,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("transformation failed")
	}

	if result.Degraded {
		log.Warn().Msg("model unavailable: result is the original image passed through, not a transformation")
	}

	image := imaging.Normalize(result.ImageDataURL)
	if err := os.WriteFile(*outPath, image.Bytes, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("failed to write output")
	}

	log.Info().Str("model", result.Model).Str("out", *outPath).Msg("transformation complete")
}
