package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/internal/metrics"
)

const (
	// DefaultHTTPTimeout bounds a single completion request
	DefaultHTTPTimeout = 120 * time.Second
	// DefaultMaxRetries is used when the model config does not set one
	DefaultMaxRetries = 3
	// DefaultBaseRetryDelay seeds the exponential backoff
	DefaultBaseRetryDelay = 2 * time.Second
	// rateLimitBackoffBase grows 429 backoff as 3^n (6s, 18s, 54s)
	rateLimitBackoffBase = 3
)

// Client calls OpenAI-compatible chat-completion endpoints with per-model
// rate limiting and bounded retries.
type Client struct {
	httpClient     *http.Client
	limiters       *limiterPool
	logger         *slog.Logger
	metrics        *metrics.Collector
	maxRetries     int
	baseRetryDelay time.Duration
}

// NewClient creates a new API client
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: DefaultHTTPTimeout},
		limiters:       newLimiterPool(logger),
		logger:         logger,
		maxRetries:     DefaultMaxRetries,
		baseRetryDelay: DefaultBaseRetryDelay,
	}
}

// SetMetricsCollector enables request and rate limiter instrumentation
func (c *Client) SetMetricsCollector(collector *metrics.Collector) {
	c.metrics = collector
}

// ChatCompletion sends one chat completion request, waiting on the model's
// rate limiter first and retrying transient failures with backoff.
func (c *Client) ChatCompletion(
	ctx context.Context,
	modelCfg config.ModelConfig,
	apiKey string,
	messages []Message,
) (*ChatCompletionResponse, error) {
	// Limiters are keyed by endpoint+model so the same model name on two
	// providers gets independent budgets
	modelID := modelCfg.BaseURL + ":" + modelCfg.ModelName

	waitStart := time.Now()
	if err := c.limiters.wait(ctx, modelID, modelCfg.RateLimitPerMinute); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RecordRateLimiterWait(modelCfg.ModelName, time.Since(waitStart))
	}

	req := ChatCompletionRequest{
		Model:       modelCfg.ModelName,
		Messages:    messages,
		Temperature: modelCfg.Temperature,
		TopP:        modelCfg.TopP,
		MaxTokens:   modelCfg.MaxOutputTokens,
		N:           1,
	}

	maxRetries := c.maxRetries
	if modelCfg.MaxRetries > 0 {
		maxRetries = modelCfg.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt, lastErr)
			c.logger.Warn("Retrying API request",
				"attempt", attempt,
				"max_retries", maxRetries,
				"backoff", delay,
				"model", modelCfg.ModelName)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		reqStart := time.Now()
		resp, err := c.postCompletion(ctx, modelCfg.BaseURL, apiKey, req)
		if c.metrics != nil {
			c.metrics.RecordAPIRequest(modelCfg.ModelName, time.Since(reqStart), err == nil)
		}
		if err == nil {
			return resp, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// backoffDelay returns the jittered sleep before the given retry attempt.
// Rate-limit rejections back off harder than server errors.
func (c *Client) backoffDelay(attempt int, lastErr error) time.Duration {
	var backoff time.Duration
	var apiErr *APIError
	if errors.As(lastErr, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		backoff = time.Duration(math.Pow(rateLimitBackoffBase, float64(attempt))) * c.baseRetryDelay
	} else {
		backoff = time.Duration(math.Pow(2, float64(attempt-1))) * c.baseRetryDelay
	}
	jitter := time.Duration((rand.Float64()*0.2 - 0.1) * float64(backoff))
	return backoff + jitter
}

func (c *Client) postCompletion(
	ctx context.Context,
	baseURL string,
	apiKey string,
	req ChatCompletionRequest,
) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	} else {
		c.logger.Warn("API request without key", "endpoint", endpoint)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network-level failures are always worth retrying
		return nil, &APIError{Message: fmt.Sprintf("request failed: %v", err), Retryable: true}
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, apiErrorFromResponse(httpResp.StatusCode, respBody)
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned in response")
	}
	return &resp, nil
}

// apiErrorFromResponse builds an APIError from a non-200 response, pulling
// the structured error message out when the provider sent one
func apiErrorFromResponse(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Retryable:  transientStatus(statusCode),
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Type
		apiErr.Code = errResp.Error.Code
		return apiErr
	}

	apiErr.Message = fmt.Sprintf("API request failed with status %d: %s", statusCode, string(body))
	return apiErr
}

func retryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

func transientStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// APIError represents an error returned by the API
type APIError struct {
	Message    string
	StatusCode int
	Type       string
	Code       string
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}
