// Package llm подсказывает локаторы для слабо адресуемых элементов и
// описывает страницу через OpenAI. Включает rate limiting, кэш ответов и
// логирование запросов.
package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Logger сохраняет запросы к LLM.
type Logger interface {
	LogLLMRequest(ctx context.Context, runID *string, role, promptText, responseText, model string, tokensUsed int) error
}

// ChatCompleter - часть openai.Client, которой пользуется пакет.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Suggestion - предложенный моделью локатор для одного элемента.
type Suggestion struct {
	Element    int    `json:"element"`
	CustomName string `json:"custom_name"`
	Type       string `json:"type"`
	Selector   string `json:"selector"`
	Reasoning  string `json:"reasoning"`
}

// PageAnalysis - краткое описание страницы.
type PageAnalysis struct {
	PageType    string   `json:"page_type"`
	Summary     string   `json:"summary"`
	KeyElements []string `json:"key_elements"`
}
