// Package translate calls the external machine translation service.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"promptionary/internal/utils"

	"github.com/tidwall/gjson"
)

// ErrEmptyTranslation is returned when the service answers without any text
var ErrEmptyTranslation = errors.New("translate: empty translation")

// Translator turns entry content into its translation
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	Source() string
}

const maxResponseBytes = 1 << 20

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Gemini translates Indonesian text to English with the Gemini generateContent API
type Gemini struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// Option customizes a Gemini client
type Option func(*Gemini)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gemini) { g.client = c }
}

// WithRetry sets the attempt cap and the first backoff delay
func WithRetry(attempts int, base time.Duration) Option {
	return func(g *Gemini) {
		g.attempts = attempts
		g.backoff = base
	}
}

// NewGemini builds a client for the given endpoint, key and model
func NewGemini(endpoint, apiKey, model string, opts ...Option) *Gemini {
	g := &Gemini{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 15 * time.Second},
		attempts: 3,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Source names the model recorded on stored translations
func (g *Gemini) Source() string {
	return g.model
}

// Translate sends one prompt and returns the trimmed first candidate
func (g *Gemini) Translate(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{
			Text: fmt.Sprintf("Translate this Indonesian text to English: %q", text),
		}}}},
		GenerationConfig: generationConfig{Temperature: 0.2, MaxOutputTokens: 250},
	})
	if err != nil {
		return "", err
	}
	target := g.endpoint + "/models/" + g.model + ":generateContent?key=" + url.QueryEscape(g.apiKey)

	var result string
	err = utils.Retry(ctx, g.attempts, g.backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return utils.Retryable(fmt.Errorf("translate: request failed: %w", err))
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return utils.Retryable(fmt.Errorf("translate: read response: %w", err))
		}
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("translate: status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "error.message").String())
			if utils.RetryableStatus(resp.StatusCode) {
				return utils.Retryable(err)
			}
			return err
		}
		result = strings.TrimSpace(gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String())
		return nil
	})
	if err != nil {
		return "", err
	}
	if result == "" {
		return "", ErrEmptyTranslation
	}
	return result, nil
}
