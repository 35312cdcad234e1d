// Package openrouter talks to the OpenRouter OpenAI-compatible API for
// embeddings and page vision. Text generation goes through the
// meridian-llm-go provider in the adapters package.
package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
)

// HTTPError is a non-2xx response from OpenRouter.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openrouter http %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	VisionModel    string
	Dimensions     int
	// RequestsPerSecond of 0 disables client-side throttling.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client implements oracle.Embedder and oracle.VisionExtractor. It
// performs exactly one HTTP call per method call; retries are layered on
// top by the caller.
type Client struct {
	apiKey         string
	baseURL        string
	embeddingModel string
	visionModel    string
	dimensions     int
	httpClient     *http.Client
	limiter        *rate.Limiter
	logger         *slog.Logger
}

// NewClient creates an OpenRouter client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY environment variable not set")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://openrouter.ai/api/v1"
	}
	if opts.Dimensions == 0 {
		opts.Dimensions = config.EmbeddingDimensions
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		apiKey:         opts.APIKey,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		embeddingModel: opts.EmbeddingModel,
		visionModel:    opts.VisionModel,
		dimensions:     opts.Dimensions,
		httpClient:     opts.HTTPClient,
		limiter:        limiter,
		logger:         opts.Logger,
	}, nil
}

// NewClientFromConfig creates a client from the service configuration.
func NewClientFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	return NewClient(Options{
		APIKey:            cfg.OpenRouterAPIKey,
		BaseURL:           cfg.OpenRouterBaseURL,
		EmbeddingModel:    cfg.ModelEmbedding,
		VisionModel:       cfg.ModelVision,
		RequestsPerSecond: cfg.OpenRouterRPS,
		Logger:            logger,
	})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per input in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body := embeddingsRequest{
		Model:      c.embeddingModel,
		Input:      texts,
		Dimensions: c.dimensions,
	}

	var resp embeddingsResponse
	if err := c.do(ctx, "/embeddings", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openrouter: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		out[i] = vec
	}
	return out, nil
}

// ExtractPageText sends one page image with the extraction prompt to the
// vision model.
func (c *Client) ExtractPageText(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	body := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
	}

	var resp chatResponse
	if err := c.do(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: vision response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// do posts body and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, path string, body, out any) error {
	resp, err := c.send(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openrouter read body: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openrouter decode error: %w", err)
	}
	return nil
}

// send posts body and returns the response when the status is 2xx. The
// caller closes the body.
func (c *Client) send(ctx context.Context, path string, body any) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("openrouter encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	c.logger.Debug("openrouter request",
		"path", path,
		"status", resp.StatusCode,
		"latency", time.Since(start).String(),
	)
	return resp, nil
}
