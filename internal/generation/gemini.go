package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	geminiAPIURL       = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultGeminiModel = "gemini-2.0-flash"
	maxErrorBody       = 512
)

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the public endpoint; empty means geminiAPIURL.
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries uint64
	RetryBase  time.Duration
}

// Gemini calls Google's generateContent endpoint.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	maxRetries uint64
	retryBase  time.Duration
}

func NewGemini(cfg GeminiConfig) *Gemini {
	g := &Gemini{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
	}
	if g.model == "" {
		g.model = DefaultGeminiModel
	}
	if g.baseURL == "" {
		g.baseURL = geminiAPIURL
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: 120 * time.Second}
	}
	if g.retryBase <= 0 {
		g.retryBase = time.Second
	}
	return g
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("GEMINI_API_KEY is not set")
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: prompt}},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var text string
	backoff := retry.WithMaxRetries(g.maxRetries, retry.NewExponential(g.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := g.generateOnce(ctx, payload)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Retryable() {
				return retry.RetryableError(err)
			}
			return err
		}
		text = out
		return nil
	})
	return text, err
}

func (g *Gemini) generateOnce(ctx context.Context, payload []byte) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		body := string(respBody)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return "", &StatusError{StatusCode: httpResp.StatusCode, Body: body}
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}
