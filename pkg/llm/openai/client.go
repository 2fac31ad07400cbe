// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Поддерживает vision запросы: картинки уходят как image_url части
// одного пользовательского сообщения.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ilkoid/poncho-inventory/pkg/config"
	"github.com/ilkoid/poncho-inventory/pkg/llm"
	"github.com/ilkoid/poncho-inventory/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey возвращается при вызове без ключа.
// Конфиг грузится и без него, поэтому проверка отложена до первого запроса.
var ErrMissingAPIKey = errors.New("api key is not configured (set OPENAI_API_KEY or models.definitions.<name>.api_key)")

// Client реализует интерфейс llm.Provider поверх sashabaranov/go-openai.
type Client struct {
	api      *openai.Client
	defaults llm.GenerateOptions
	hasKey   bool
}

// Проверка что Client реализует llm.Provider
var _ llm.Provider = (*Client)(nil)

// NewClient создает клиент на основе конфигурации модели.
//
// BaseURL позволяет ходить в любой OpenAI-совместимый сервис,
// Timeout (если задан) ограничивает каждый HTTP запрос.
func NewClient(modelDef config.ModelDef) *Client {
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}
	if modelDef.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: modelDef.Timeout}
	}

	return &Client{
		api: openai.NewClientWithConfig(cfg),
		defaults: llm.GenerateOptions{
			Model:       modelDef.ModelName,
			MaxTokens:   modelDef.MaxTokens,
			Temperature: modelDef.Temperature,
		},
		hasKey: modelDef.APIKey != "",
	}
}

// Generate выполняет запрос к chat completions и возвращает первый choice.
//
// Алгоритм:
//  1. Сливает дефолты модели с опциями вызова
//  2. Конвертирует сообщения в формат SDK (картинки -> MultiContent)
//  3. Вызывает API, ошибки оборачиваются с префиксом "openai api error"
//  4. Берёт Choices[0], остальные варианты игнорируются
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	if !c.hasKey {
		return llm.Message{}, ErrMissingAPIKey
	}

	o := llm.Apply(c.defaults, opts...)
	startTime := time.Now()

	openaiMsgs := make([]openai.ChatCompletionMessage, len(messages))
	imagesCount := 0
	for i, m := range messages {
		openaiMsgs[i] = mapToOpenAI(m)
		imagesCount += len(m.Images)
	}

	req := openai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    openaiMsgs,
		MaxTokens:   o.MaxTokens,
		Temperature: float32(o.Temperature),
	}

	utils.Debug("LLM request started",
		"model", o.Model,
		"messages_count", len(messages),
		"images_count", imagesCount,
		"max_tokens", o.MaxTokens)

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", o.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("openai api error: no choices in response")
	}

	if o.OnUsage != nil {
		o.OnUsage(llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		})
	}

	choice := resp.Choices[0].Message

	utils.Info("LLM response received",
		"model", o.Model,
		"content_length", len(choice.Content),
		"total_tokens", resp.Usage.TotalTokens,
		"finish_reason", resp.Choices[0].FinishReason,
		"duration_ms", time.Since(startTime).Milliseconds())

	return llm.Message{
		Role:    llm.Role(choice.Role),
		Content: choice.Content,
	}, nil
}

// mapToOpenAI конвертирует наше сообщение в формат SDK.
// Если есть картинки, создаём MultiContent: сначала текст, затем image_url части.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role: string(m.Role),
	}

	if len(m.Images) == 0 {
		msg.Content = m.Content
		return msg
	}

	parts := make([]openai.ChatMessagePart, 0, len(m.Images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: m.Content,
	})

	for _, imgURL := range m.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    imgURL, // base64 data-uri или http ссылка
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	msg.MultiContent = parts
	return msg
}
