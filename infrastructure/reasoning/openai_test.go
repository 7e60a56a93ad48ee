package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenAIProvider(t *testing.T) {
	t.Parallel()

	t.Run("creates provider with defaults", func(t *testing.T) {
		t.Parallel()

		provider := NewOpenAIProvider(OpenAIConfig{
			APIKey: "test-key",
			Model:  "gpt-4o",
		})

		if provider == nil {
			t.Fatal("NewOpenAIProvider() returned nil")
		}
		if provider.apiKey != "test-key" {
			t.Errorf("apiKey = %s, want test-key", provider.apiKey)
		}
		if provider.baseURL != "https://api.openai.com" {
			t.Errorf("baseURL = %s, want https://api.openai.com", provider.baseURL)
		}
		if provider.model != "gpt-4o" {
			t.Errorf("model = %s, want gpt-4o", provider.model)
		}
	})

	t.Run("uses custom base URL", func(t *testing.T) {
		t.Parallel()

		provider := NewOpenAIProvider(OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: "https://custom.openai.com",
		})

		if provider.baseURL != "https://custom.openai.com" {
			t.Errorf("baseURL = %s, want https://custom.openai.com", provider.baseURL)
		}
	})
}

func TestOpenAIProvider_Name(t *testing.T) {
	t.Parallel()

	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key"})

	if provider.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", provider.Name())
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Run("successful completion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Errorf("Path = %s, want /v1/chat/completions", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("Authorization header not set correctly")
			}

			var req openAIChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			if req.Model != "gpt-4o" {
				t.Errorf("Model = %s, want gpt-4o", req.Model)
			}

			resp := openAIChatResponse{
				ID:    "chatcmpl-123",
				Model: "gpt-4o",
				Choices: []struct {
					Index   int `json:"index"`
					Message struct {
						Role    string `json:"role"`
						Content string `json:"content"`
					} `json:"message"`
					FinishReason string `json:"finish_reason"`
				}{
					{
						Index: 0,
						Message: struct {
							Role    string `json:"role"`
							Content string `json:"content"`
						}{Role: "assistant", Content: "Thought: done\nAction: finish\nResult: ok"},
						FinishReason: "stop",
					},
				},
				Usage: struct {
					PromptTokens     int `json:"prompt_tokens"`
					CompletionTokens int `json:"completion_tokens"`
					TotalTokens      int `json:"total_tokens"`
				}{PromptTokens: 5, CompletionTokens: 10, TotalTokens: 15},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-4o"})

		resp, err := provider.Complete(context.Background(), CompletionRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if resp.Message.Role != "assistant" {
			t.Errorf("Role = %s, want assistant", resp.Message.Role)
		}
		if resp.Usage.TotalTokens != 15 {
			t.Errorf("TotalTokens = %d, want 15", resp.Usage.TotalTokens)
		}
	})

	t.Run("handles API error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit_error"}}`))
		}))
		defer server.Close()

		provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})

		_, err := provider.Complete(context.Background(), CompletionRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err == nil {
			t.Error("expected error for 429 response")
		}
	})

	t.Run("handles error in response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := openAIChatResponse{
				Error: &struct {
					Message string `json:"message"`
					Type    string `json:"type"`
					Code    string `json:"code"`
				}{Type: "rate_limit_error", Message: "Rate limit exceeded", Code: "rate_limit"},
			}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})

		resp, err := provider.Complete(context.Background(), CompletionRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if resp.Error == nil || resp.Error.Type != "rate_limit_error" {
			t.Errorf("expected rate_limit_error, got %+v", resp.Error)
		}
	})

	t.Run("handles empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(openAIChatResponse{ID: "chatcmpl-123"})
		}))
		defer server.Close()

		provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})

		_, err := provider.Complete(context.Background(), CompletionRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err == nil {
			t.Error("expected error for empty choices")
		}
	})
}
