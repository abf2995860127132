// Package hint generates the picture shown to a participant after a
// failed first recall.
package hint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abhisek/memoir/internal/keywords"
)

// ErrNoKeywords is returned when there is nothing to draw.
var ErrNoKeywords = errors.New("no keywords for hint image")

// ErrNotConfigured is returned by New when no API key is set.
var ErrNotConfigured = errors.New("image generation API key is not set")

// Config configures the image generator.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Size    string
	Quality string

	// PerMinute limits image requests across all sessions. Zero disables
	// limiting.
	PerMinute int
}

func DefaultConfig() Config {
	return Config{
		Model:     openai.CreateImageModelDallE3,
		Size:      openai.CreateImageSize1024x1024,
		Quality:   openai.CreateImageQualityStandard,
		PerMinute: 5,
	}
}

// ConfigFromEnv reads MEMOIR_IMAGE_API_KEY, falling back to
// MEMOIR_OPENAI_API_KEY, plus MEMOIR_IMAGE_MODEL and MEMOIR_IMAGE_BASE_URL.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.APIKey = os.Getenv("MEMOIR_IMAGE_API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("MEMOIR_OPENAI_API_KEY")
	}
	if v := os.Getenv("MEMOIR_IMAGE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("MEMOIR_IMAGE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	return cfg
}

// Prompt builds the image prompt from at most MaxKeywordsPerAnswer keywords.
func Prompt(kws []string) string {
	if len(kws) > keywords.MaxKeywordsPerAnswer {
		kws = kws[:keywords.MaxKeywordsPerAnswer]
	}
	return "Make a photo about " + strings.Join(kws, ", ") + "."
}

// Generator calls the OpenAI images API.
type Generator struct {
	client *openai.Client
	cfg    Config
}

// New creates a Generator. It fails without an API key.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	return &Generator{client: openai.NewClientWithConfig(conf), cfg: cfg}, nil
}

// Prompt reports the prompt GenerateHintImage sends for kws.
func (g *Generator) Prompt(kws []string) string { return Prompt(kws) }

// GenerateHintImage returns the URL of a generated image.
func (g *Generator) GenerateHintImage(ctx context.Context, kws []string) (string, error) {
	if len(kws) == 0 {
		return "", ErrNoKeywords
	}
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         Prompt(kws),
		Model:          g.cfg.Model,
		N:              1,
		Size:           g.cfg.Size,
		Quality:        g.cfg.Quality,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("image generation rate limited: %w", err)
		}
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("image generation returned no URL")
	}
	return resp.Data[0].URL, nil
}
