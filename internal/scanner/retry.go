package scanner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/fetch"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/validate"
)

const maxBackoff = 30 * time.Second

// retryable: повторяем только таймауты и сетевые сбои навигации.
// Ответы 4xx от сервера не повторяются.
func retryable(err error) bool {
	if errors.Is(err, fetch.ErrEmptyInput) || errors.Is(err, fetch.ErrFileInput) ||
		errors.Is(err, fetch.ErrRedirectBlocked) || errors.Is(err, context.Canceled) {
		return false
	}
	if strings.Contains(err.Error(), "HTTP 4") {
		return false
	}
	return validate.Classify(locator.TypeCSS, "", err).Kind.Retryable()
}

// retryWithBackoff вызывает fn до maxRetries раз с задержкой base, 2*base, 4*base…
// (не больше maxBackoff). Неповторяемая ошибка возвращается сразу.
func retryWithBackoff(ctx context.Context, maxRetries int, base time.Duration, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if base <= 0 {
		base = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
			if delay > maxBackoff {
				delay = maxBackoff
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
