package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sumithkumar123/resume-analysis-app/internal/applicant"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Config holds client settings. Zero values fall back to defaults suited
// to the Gemini free tier (60 requests per minute, 3 attempts).
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the API base URL. Useful for tests.
	BaseURL string

	MaxAttempts    int
	BucketCapacity int
	RefillInterval time.Duration

	// BackoffUnit scales the 2^attempt retry delay. Defaults to one second.
	BackoffUnit time.Duration

	HTTPTimeout time.Duration
}

// Client calls the Gemini generateContent API to extract structured
// applicant data from resume text. All outbound calls pass through a
// shared token bucket and a bounded retry loop keyed on HTTP 429.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	maxAttempts int
	backoffUnit time.Duration
	bucket      *TokenBucket
	httpClient  *http.Client
	log         *slog.Logger

	// Stats tracks end-to-end enrichment latencies.
	Stats *EnrichStats
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BucketCapacity <= 0 {
		cfg.BucketCapacity = 60
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Minute
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 120 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		maxAttempts: cfg.MaxAttempts,
		backoffUnit: cfg.BackoffUnit,
		bucket:      NewTokenBucket(cfg.BucketCapacity, cfg.RefillInterval),
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		log:         log,
		Stats:       NewEnrichStats(time.Hour),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Enrich extracts structured applicant data from raw resume text.
// Upstream and envelope failures are returned as errors; unparseable model
// output is not — it degrades to an empty record with ok=false.
func (c *Client) Enrich(ctx context.Context, rawText string) (applicant.Record, bool, error) {
	start := time.Now()
	text, err := c.generateWithRetry(ctx, BuildPrompt(rawText))
	if err != nil {
		return applicant.Record{}, false, err
	}
	c.Stats.Record(time.Since(start).Milliseconds())

	rec, ok := Recover(text)
	if !ok {
		c.log.Warn("no structured data recovered from model output",
			"raw_len", len(text))
	}
	return rec, ok, nil
}

// generateWithRetry issues the API call under the token bucket, retrying
// throttled attempts with exponential backoff. It always resolves to a
// response or an explicit error; exhausting the attempt budget on 429s
// yields ErrRetriesExhausted wrapping the last failure.
func (c *Client) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.bucket.Acquire(ctx); err != nil {
			return "", err
		}

		text, err := c.generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", err
		}
		if attempt == c.maxAttempts {
			break
		}

		delay := Backoff(attempt, c.backoffUnit)
		c.log.Warn("rate limited, backing off", "attempt", attempt, "delay", delay)
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, c.maxAttempts, lastErr)
}

// generate performs a single generateContent call and extracts the inner
// model text from the response envelope.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrMalformedEnvelope, err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("gemini error: %s: %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidate text", ErrMalformedEnvelope)
	}

	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
