package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindInvalidSelector
	KindNavigation
	KindUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindInvalidSelector:
		return "invalid selector"
	case KindNavigation:
		return "navigation"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Retryable - ошибку имеет смысл повторить (сеть, таймаут).
func (k ErrorKind) Retryable() bool {
	return k == KindTimeout || k == KindNavigation
}

// ErrUnsupported возвращают резолверы, которые не умеют данный тип селектора.
var ErrUnsupported = errors.New("selector type not supported by resolver")

// ErrInvalidSelector - селектор не разобрался.
var ErrInvalidSelector = errors.New("invalid selector")

// ResolveError - ошибка одного вызова резолвера. Не фатальна: пишется в кандидата.
type ResolveError struct {
	Kind     ErrorKind
	Type     locator.Type
	Selector string
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s %q: %v", e.Kind, e.Type, e.Selector, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Classify определяет вид ошибки сначала по типизированным причинам,
// затем по тексту, как это делают драйверы браузеров.
func Classify(typ locator.Type, selector string, err error) *ResolveError {
	if err == nil {
		return nil
	}
	var re *ResolveError
	if errors.As(err, &re) {
		return re
	}

	kind := KindUnknown
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, ErrUnsupported):
		kind = KindUnsupported
	case errors.Is(err, ErrInvalidSelector):
		kind = KindInvalidSelector
	default:
		kind = classifyText(strings.ToLower(err.Error()))
	}
	return &ResolveError{Kind: kind, Type: typ, Selector: selector, Err: err}
}

func classifyText(msg string) ErrorKind {
	switch {
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline"),
		strings.Contains(msg, "etimedout"):
		return KindTimeout
	case strings.Contains(msg, "not a valid selector"),
		strings.Contains(msg, "invalid selector"),
		strings.Contains(msg, "unexpected token"),
		strings.Contains(msg, "syntax"),
		strings.Contains(msg, "expected"):
		return KindInvalidSelector
	case strings.Contains(msg, "navigation"),
		strings.Contains(msg, "net::"),
		strings.Contains(msg, "connection"),
		strings.Contains(msg, "econnrefused"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "target closed"):
		return KindNavigation
	case strings.Contains(msg, "not supported"),
		strings.Contains(msg, "unsupported"):
		return KindUnsupported
	}
	return KindUnknown
}

// AuthError - аутентификация не прошла. Фатальна только для стадии валидации.
type AuthError struct {
	State State
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %v", e.State, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransitionError - недопустимый переход автомата сессии.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid session transition %s -> %s", e.From, e.To)
}
