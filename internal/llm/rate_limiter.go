package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter - два token bucket: запросы в минуту и токены в час.
type RateLimiter struct {
	requestsPerMinute int
	tokensPerHour     int

	mu          sync.Mutex
	requests    float64
	tokens      float64
	lastRefill  time.Time
	now         func() time.Time
	pollTimeout time.Duration
}

func NewRateLimiter(requestsPerMinute, tokensPerHour int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if tokensPerHour <= 0 {
		tokensPerHour = 90000
	}
	rl := &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		tokensPerHour:     tokensPerHour,
		requests:          float64(requestsPerMinute),
		tokens:            float64(tokensPerHour),
		now:               time.Now,
		pollTimeout:       50 * time.Millisecond,
	}
	rl.lastRefill = rl.now()
	return rl
}

// refill вызывается под mu.
func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill)
	rl.lastRefill = now

	rl.requests = min(float64(rl.requestsPerMinute), rl.requests+elapsed.Minutes()*float64(rl.requestsPerMinute))
	rl.tokens = min(float64(rl.tokensPerHour), rl.tokens+elapsed.Hours()*float64(rl.tokensPerHour))
}

// Wait ждёт, пока в обоих ведрах хватит места под запрос на tokens токенов.
// Запрос больше часового бюджета отклоняется сразу.
func (rl *RateLimiter) Wait(ctx context.Context, tokens int) error {
	if tokens > rl.tokensPerHour {
		return fmt.Errorf("превышен лимит токенов: запросу нужно %d, бюджет %d TPH", tokens, rl.tokensPerHour)
	}
	for {
		if rl.take(tokens) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ожидание rate limit: %w", ctx.Err())
		case <-time.After(rl.pollTimeout):
		}
	}
}

func (rl *RateLimiter) take(tokens int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.requests < 1 || rl.tokens < float64(tokens) {
		return false
	}
	rl.requests--
	rl.tokens -= float64(tokens)
	return true
}

// ConsumeTokens списывает разницу, когда ответ оказался дороже оценки.
func (rl *RateLimiter) ConsumeTokens(tokens int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = max(0, rl.tokens-float64(tokens))
}

// Stats - сколько запросов и токенов доступно сейчас.
func (rl *RateLimiter) Stats() (requests, tokens int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	return int(rl.requests), int(rl.tokens)
}
