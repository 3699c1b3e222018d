package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lox/weatherwidget/internal/condition"
)

// Painter produces image bytes for an asset path.
type Painter interface {
	Generate(ctx context.Context, assetPath string) ([]byte, error)
}

// Generator paints missing condition art using OpenAI's image API.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a generator authenticated with apiKey.
func NewGenerator(apiKey string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  "gpt-image-1",
	}, nil
}

// Generate creates the art for assetPath. Icons come back as square PNGs and
// backgrounds as wide JPEGs, matching the extensions the widget serves.
func (g *Generator) Generate(ctx context.Context, assetPath string) ([]byte, error) {
	prompt := Prompt(assetPath)

	params := openai.ImageGenerateParams{
		Model:        g.model,
		Prompt:       prompt,
		Size:         openai.ImageGenerateParamsSize1536x1024,
		Quality:      openai.ImageGenerateParamsQualityLow,
		OutputFormat: openai.ImageGenerateParamsOutputFormatJPEG,
	}
	if condition.IsIcon(assetPath) {
		params.Size = openai.ImageGenerateParamsSize1024x1024
		params.OutputFormat = openai.ImageGenerateParamsOutputFormatPNG
	}

	log.Printf("imagegen: generating %s", assetPath)

	resp, err := g.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no image data returned")
	}

	imageData := resp.Data[0].B64JSON
	if imageData == "" {
		return nil, errors.New("empty image data returned")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}

	log.Printf("imagegen: generated %s (%d bytes)", assetPath, len(imageBytes))
	return imageBytes, nil
}

var scenes = map[string]string{
	string(condition.Clear):        "a cloudless sky with bright sunshine",
	string(condition.Clouds):       "a sky full of soft grey and white clouds",
	string(condition.Drizzle):      "fine drizzle falling from low cloud",
	string(condition.Rain):         "steady rain with puddles and dark clouds",
	string(condition.Snow):         "gently falling snow over a quiet landscape",
	string(condition.Thunderstorm): "a thunderstorm with lightning over dark clouds",
	string(condition.Tornado):      "a distant tornado funnel under a heavy sky",
	string(condition.Mist):         "a soft misty haze over a valley",
	string(condition.Fog):          "thick fog obscuring trees and hills",
	condition.CompassStem:          "a brass compass on a weathered map",
	condition.UnavailableStem:      "an empty horizon under a blank, colourless sky",
}

// Prompt builds the image prompt for an asset path.
func Prompt(assetPath string) string {
	stem := condition.StemOf(assetPath)
	scene, ok := scenes[stem]
	if !ok {
		scene = strings.ToLower(stem) + " weather"
	}

	if condition.IsIcon(assetPath) {
		return fmt.Sprintf("A simple flat weather icon depicting %s. Centered, bold shapes, "+
			"limited palette, plain white background, no text.", scene)
	}
	return fmt.Sprintf("A wide atmospheric landscape photograph of %s. Natural light, "+
		"muted tones suitable as a background behind white text, no people, no text.", scene)
}

// FillMissing paints every missing asset into dir, laid out like the site root. It
// returns the paths written; generation failures are logged and skipped so one bad
// prompt doesn't block the rest.
func FillMissing(ctx context.Context, p Painter, dir string, missing []string) ([]string, error) {
	var written []string
	var failed int

	for _, assetPath := range missing {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		data, err := p.Generate(ctx, assetPath)
		if err != nil {
			log.Printf("imagegen: %s: %v", assetPath, err)
			failed++
			continue
		}

		full := filepath.Join(dir, filepath.FromSlash(assetPath))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return written, fmt.Errorf("create asset dir: %w", err)
		}
		if err := os.WriteFile(full, data, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", assetPath, err)
		}
		written = append(written, assetPath)
	}

	if failed > 0 {
		return written, fmt.Errorf("%d of %d assets could not be generated", failed, len(missing))
	}
	return written, nil
}
