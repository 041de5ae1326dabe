package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/sanitizer"
)

type Config struct {
	APIKey        string
	Model         string
	MaxTokens     int
	CacheSize     int
	RatePerMin    int
	TokensPerHour int
}

type Client struct {
	api         ChatCompleter
	model       string
	maxTokens   int
	logger      Logger
	log         *logger.Zap
	sanitizer   *sanitizer.DataSanitizer
	rateLimiter *RateLimiter
	breaker     *circuitBreaker
	cache       *lru.Cache[string, string]
}

// NewClient возвращает nil без ключа: обогащение тогда просто не выполняется.
func NewClient(cfg Config, reqLogger Logger, log *logger.Zap) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	return newClient(openai.NewClient(cfg.APIKey), cfg, reqLogger, log)
}

func newClient(api ChatCompleter, cfg Config, reqLogger Logger, log *logger.Zap) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 600
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if log == nil {
		log = logger.Nop()
	}
	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("llm cache: %w", err)
	}
	return &Client{
		api:         api,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		logger:      reqLogger,
		log:         log,
		sanitizer:   sanitizer.New(),
		rateLimiter: NewRateLimiter(cfg.RatePerMin, cfg.TokensPerHour),
		breaker:     newCircuitBreaker(3, time.Minute),
		cache:       cache,
	}, nil
}

type runIDKey struct{}

// WithRunID привязывает запросы к LLM к запуску сканирования для журнала.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func runIDFrom(ctx context.Context) *string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return &id
	}
	return nil
}

func cacheKey(model, system, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// completeJSON отправляет запрос с JSON-ответом и разбирает его в out.
// Одинаковые запросы берутся из кэша без обращения к API.
func (c *Client) completeJSON(ctx context.Context, system, prompt string, out any) error {
	key := cacheKey(c.model, system, prompt)
	if content, ok := c.cache.Get(key); ok {
		c.log.Debug("llm cache hit", zap.String("key", key[:12]))
		return json.Unmarshal([]byte(content), out)
	}

	// грубая оценка: ~4 символа на токен плюс ответ
	estimated := (len(system)+len(prompt))/4 + c.maxTokens
	if err := c.rateLimiter.Wait(ctx, estimated); err != nil {
		return err
	}

	var resp openai.ChatCompletionResponse
	err := c.breaker.call(func() error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		return err
	}
	if err != nil {
		return fmt.Errorf("llm request: %w", err)
	}
	if resp.Usage.TotalTokens > estimated {
		c.rateLimiter.ConsumeTokens(resp.Usage.TotalTokens - estimated)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response from LLM")
	}

	content := resp.Choices[0].Message.Content
	if c.logger != nil {
		if err := c.logger.LogLLMRequest(ctx, runIDFrom(ctx), openai.ChatMessageRoleUser, prompt, content, c.model, resp.Usage.TotalTokens); err != nil {
			c.log.Warn("не удалось сохранить запрос к LLM", zap.Error(err))
		}
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse LLM response: %w", err)
	}
	c.cache.Add(key, content)
	return nil
}
