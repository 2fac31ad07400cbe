package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ilkoid/poncho-inventory/pkg/config"
	"github.com/ilkoid/poncho-inventory/pkg/llm"
	openai "github.com/sashabaranov/go-openai"
)

// TestNewClient тестирует создание клиента.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		modelDef config.ModelDef
	}{
		{
			name: "minimal config",
			modelDef: config.ModelDef{
				APIKey:    "test-key",
				ModelName: "gpt-4o",
			},
		},
		{
			name: "with custom base url",
			modelDef: config.ModelDef{
				APIKey:    "test-key",
				ModelName: "glm-4.6v",
				BaseURL:   "https://api.z.ai/v4",
				MaxTokens: 500,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.modelDef)
			if client == nil {
				t.Fatal("expected non-nil client")
			}
			if client.defaults.Model != tt.modelDef.ModelName {
				t.Errorf("expected model %s, got %s", tt.modelDef.ModelName, client.defaults.Model)
			}
			if client.defaults.MaxTokens != tt.modelDef.MaxTokens {
				t.Errorf("expected max tokens %d, got %d", tt.modelDef.MaxTokens, client.defaults.MaxTokens)
			}
			if client.api == nil {
				t.Error("expected non-nil api client")
			}
		})
	}
}

// TestMapToOpenAI тестирует конвертацию сообщений.
func TestMapToOpenAI(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		msg := mapToOpenAI(llm.Message{Role: llm.RoleUser, Content: "Hello"})
		if msg.Content != "Hello" {
			t.Errorf("expected content Hello, got %q", msg.Content)
		}
		if len(msg.MultiContent) != 0 {
			t.Errorf("expected no multi content, got %d parts", len(msg.MultiContent))
		}
	})

	t.Run("vision message", func(t *testing.T) {
		msg := mapToOpenAI(llm.Message{
			Role:    llm.RoleUser,
			Content: "Describe",
			Images:  []string{"data:image/png;base64,AAA", "data:image/jpeg;base64,BBB"},
		})
		if msg.Content != "" {
			t.Errorf("content must move into parts, got %q", msg.Content)
		}
		if len(msg.MultiContent) != 3 {
			t.Fatalf("expected 3 parts, got %d", len(msg.MultiContent))
		}
		if msg.MultiContent[0].Type != openai.ChatMessagePartTypeText || msg.MultiContent[0].Text != "Describe" {
			t.Errorf("first part must be the text, got %+v", msg.MultiContent[0])
		}
		if msg.MultiContent[2].ImageURL == nil || msg.MultiContent[2].ImageURL.URL != "data:image/jpeg;base64,BBB" {
			t.Errorf("unexpected image part %+v", msg.MultiContent[2])
		}
	})
}

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func newFakeAPI(t *testing.T, status int, body string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		raw, _ := io.ReadAll(r.Body)
		if got != nil {
			if err := json.Unmarshal(raw, got); err != nil {
				t.Errorf("bad request json: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "Giacca blu in denim."}, "finish_reason": "stop"},
    {"index": 1, "message": {"role": "assistant", "content": "ignored"}, "finish_reason": "stop"}
  ],
  "usage": {"prompt_tokens": 900, "completion_tokens": 12, "total_tokens": 912}
}`

// TestGenerate_VisionRequest проверяет форму запроса и разбор первого choice.
func TestGenerate_VisionRequest(t *testing.T) {
	var got capturedRequest
	srv := newFakeAPI(t, http.StatusOK, okResponse, &got)

	client := NewClient(config.ModelDef{
		APIKey:    "test-key",
		ModelName: "gpt-4o",
		BaseURL:   srv.URL + "/v1",
		MaxTokens: 1000,
	})

	var usage llm.Usage
	result, err := client.Generate(context.Background(), []llm.Message{{
		Role:    llm.RoleUser,
		Content: "Analizza queste immagini",
		Images:  []string{"data:image/png;base64,AAA"},
	}}, llm.WithUsageCallback(func(u llm.Usage) { usage = u }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Content != "Giacca blu in denim." {
		t.Errorf("expected first choice content, got %q", result.Content)
	}
	if result.Role != llm.RoleAssistant {
		t.Errorf("expected assistant role, got %s", result.Role)
	}
	if usage.TotalTokens != 912 {
		t.Errorf("expected usage 912, got %d", usage.TotalTokens)
	}

	if got.Model != "gpt-4o" || got.MaxTokens != 1000 {
		t.Errorf("unexpected model/max_tokens: %s/%d", got.Model, got.MaxTokens)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}

	var parts []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		ImageURL struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	if err := json.Unmarshal(got.Messages[0].Content, &parts); err != nil {
		t.Fatalf("content is not a parts array: %v", err)
	}
	if len(parts) != 2 || parts[0].Type != "text" || parts[1].Type != "image_url" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	if parts[1].ImageURL.URL != "data:image/png;base64,AAA" {
		t.Errorf("unexpected image url %q", parts[1].ImageURL.URL)
	}
}

// TestGenerate_OverrideOptions проверяет что опции вызова перекрывают дефолты модели.
func TestGenerate_OverrideOptions(t *testing.T) {
	var got capturedRequest
	srv := newFakeAPI(t, http.StatusOK, okResponse, &got)

	client := NewClient(config.ModelDef{APIKey: "test-key", ModelName: "gpt-4o", BaseURL: srv.URL + "/v1", MaxTokens: 1000})

	_, err := client.Generate(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		llm.WithModel("gpt-4o-mini"), llm.WithMaxTokens(200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens != 200 {
		t.Errorf("overrides not applied: %s/%d", got.Model, got.MaxTokens)
	}
}

// TestGenerate_APIError проверяет оборачивание ошибок API.
func TestGenerate_APIError(t *testing.T) {
	srv := newFakeAPI(t, http.StatusUnauthorized,
		`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`, nil)

	client := NewClient(config.ModelDef{APIKey: "test-key", ModelName: "gpt-4o", BaseURL: srv.URL + "/v1"})

	_, err := client.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "openai api error") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

// TestGenerate_NoChoices проверяет пустой список choices.
func TestGenerate_NoChoices(t *testing.T) {
	srv := newFakeAPI(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, nil)

	client := NewClient(config.ModelDef{APIKey: "test-key", ModelName: "gpt-4o", BaseURL: srv.URL + "/v1"})

	_, err := client.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected no choices error, got %v", err)
	}
}

// TestGenerate_MissingKey проверяет отложенную ошибку отсутствующего ключа.
func TestGenerate_MissingKey(t *testing.T) {
	client := NewClient(config.ModelDef{ModelName: "gpt-4o", BaseURL: "http://127.0.0.1:1/v1"})

	_, err := client.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
