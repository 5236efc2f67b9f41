package aiclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/halcyon-labs/pagesmith/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const okResponse = `{
	"id": "test-123",
	"object": "chat.completion",
	"created": 1234567890,
	"model": "test-model",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "Test response"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestChatCompletion_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header 'Bearer test-key', got '%s'", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got '%s'", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(okResponse))
	}))
	defer server.Close()

	client := NewClient(testLogger())

	modelCfg := config.ModelConfig{
		BaseURL:            server.URL,
		ModelName:          "test-model",
		Temperature:        0.7,
		TopP:               1.0,
		MaxOutputTokens:    100,
		RateLimitPerMinute: 60,
	}

	resp, err := client.ChatCompletion(
		context.Background(),
		modelCfg,
		"test-key",
		[]Message{{Role: "user", Content: "Test message"}},
	)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("Expected 1 choice, got %d", len(resp.Choices))
	}
	if resp.Choices[0].Message.Content != "Test response" {
		t.Errorf("Expected content 'Test response', got '%s'", resp.Choices[0].Message.Content)
	}
}

func TestChatCompletion_RetryOn500(t *testing.T) {
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++
		if attemptCount < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"message": "Server error"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(okResponse))
	}))
	defer server.Close()

	client := NewClient(testLogger())
	client.maxRetries = 3
	client.baseRetryDelay = 1 // 1ns for fast testing

	modelCfg := config.ModelConfig{
		BaseURL:            server.URL,
		ModelName:          "test-model",
		RateLimitPerMinute: 1000,
	}

	resp, err := client.ChatCompletion(context.Background(), modelCfg, "test-key", []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Expected success after retries, got error: %v", err)
	}
	if attemptCount != 3 {
		t.Errorf("Expected 3 attempts (2 retries), got %d", attemptCount)
	}
	if resp.Choices[0].Message.Content != "Test response" {
		t.Errorf("Unexpected content '%s'", resp.Choices[0].Message.Content)
	}
}

func TestChatCompletion_NoRetryOn400(t *testing.T) {
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid request", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewClient(testLogger())
	client.baseRetryDelay = 1

	modelCfg := config.ModelConfig{
		BaseURL:            server.URL,
		ModelName:          "test-model",
		RateLimitPerMinute: 1000,
	}

	_, err := client.ChatCompletion(context.Background(), modelCfg, "test-key", []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("Expected error for 400 response, got nil")
	}
	if attemptCount != 1 {
		t.Errorf("Expected exactly 1 attempt for non-retryable error, got %d", attemptCount)
	}
	if !strings.Contains(err.Error(), "Invalid request") {
		t.Errorf("Expected API error message in error, got: %v", err)
	}
}

func TestAPIErrorFormat(t *testing.T) {
	err := &APIError{Message: "too many requests", StatusCode: http.StatusTooManyRequests, Retryable: true}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status code in error string, got %q", err.Error())
	}
}
