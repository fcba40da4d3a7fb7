// Package ai содержит клиент внешнего API генерации текста.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"storyforge-server/internal/model"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

// systemPrompt — фиксированная системная инструкция, требующая
// структурированный ответ.
const systemPrompt = "You are an expert storyteller and creative writer. " +
	"You craft engaging, coherent, and thoughtful stories based on the provided parameters. " +
	"Always output in a JSON format with a 'title' and 'content' field."

// untitledFallback используется, когда ни вызывающий, ни модель не дали заголовка.
const untitledFallback = "Untitled Story"

// GeneratedStory — структурированный результат генерации.
type GeneratedStory struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Client предоставляет интерфейс для работы с API генерации текста.
type Client struct {
	client    *openai.Client
	modelName string
	timeout   time.Duration
}

// Config содержит конфигурацию клиента генерации.
type Config struct {
	APIKey    string
	BaseURL   string
	ModelName string
	Timeout   int // секунды на один запрос
}

// New создает новый экземпляр клиента генерации.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("AI API key is not set")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = openai.GPT4o
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 120
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:    openai.NewClientWithConfig(config),
		modelName: cfg.ModelName,
		timeout:   time.Duration(cfg.Timeout) * time.Second,
	}, nil
}

// GenerateStory отправляет один запрос генерации и разбирает структурированный
// ответ. Любой сбой — транспортный, пустой ответ, невалидный JSON — скрывается
// за model.ErrGenerationFailed; детали остаются в обернутой ошибке для логов.
// Повторных попыток нет: один пользовательский запрос — один вызов API.
func (c *Client) GenerateStory(ctx context.Context, params model.GenerateStoryParams) (GeneratedStory, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := BuildStoryPrompt(params)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("model", c.modelName).Msg("story generation request failed")
		return GeneratedStory{}, fmt.Errorf("%w: %v", model.ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Error().Str("model", c.modelName).Msg("empty response from generation API")
		return GeneratedStory{}, fmt.Errorf("%w: empty response", model.ErrGenerationFailed)
	}

	story, err := parseGeneratedStory(resp.Choices[0].Message.Content)
	if err != nil {
		log.Error().Err(err).Msg("malformed generation payload")
		return GeneratedStory{}, fmt.Errorf("%w: %v", model.ErrGenerationFailed, err)
	}

	// Заголовок вызывающего всегда важнее предложенного моделью
	story.Title = ResolveTitle(params.Title, story.Title)

	return story, nil
}

// parseGeneratedStory разбирает JSON-ответ модели.
func parseGeneratedStory(raw string) (GeneratedStory, error) {
	var story GeneratedStory
	if err := json.Unmarshal([]byte(raw), &story); err != nil {
		return GeneratedStory{}, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if strings.TrimSpace(story.Content) == "" {
		return GeneratedStory{}, errors.New("response has no content field")
	}
	return story, nil
}

// ResolveTitle выбирает итоговый заголовок: заголовок запроса дословно, иначе
// заголовок модели, иначе литеральная заглушка.
func ResolveTitle(requested, suggested string) string {
	if requested != "" {
		return requested
	}
	if suggested != "" {
		return suggested
	}
	return untitledFallback
}
