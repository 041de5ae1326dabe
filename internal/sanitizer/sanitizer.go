// Package sanitizer маскирует секреты в тексте и разметке перед отправкой
// в LLM и сохранением в базу.
package sanitizer

import (
	"regexp"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
)

type SanitizerRule interface {
	Sanitize(text string) string
}

type DataSanitizer struct {
	rules []SanitizerRule
}

func New(extra ...SanitizerRule) *DataSanitizer {
	return &DataSanitizer{rules: append(defaultRules(), extra...)}
}

func (s *DataSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}
	for _, rule := range s.rules {
		text = rule.Sanitize(text)
	}
	return text
}

var secretKeywords = []string{
	"password", "пароль", "passwd", "token", "secret", "api-key", "api_key",
	"cvv", "cvc", "card-number", "session",
}

// SanitizeValue маскирует значение атрибута целиком, если оно выглядит секретом.
func (s *DataSanitizer) SanitizeValue(value string) string {
	if value == "" {
		return value
	}
	if looksLikeSecret(value) {
		return filtered
	}
	return s.Sanitize(value)
}

var opaquePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]{33,}$`)

func looksLikeSecret(value string) bool {
	lower := strings.ToLower(value)
	for _, kw := range secretKeywords {
		if strings.Contains(lower, kw+"=") || strings.Contains(lower, kw+":") {
			return true
		}
	}
	return opaquePattern.MatchString(value)
}

// MaskElementValue возвращает значение value элемента для вывода:
// у полей пароля и скрытых полей оно не показывается.
func MaskElementValue(el dom.Element) string {
	v, ok := el.Attr("value")
	if !ok || v == "" {
		return v
	}
	if el.Tag == "input" {
		switch strings.ToLower(el.AttrValue("type")) {
		case "password", "hidden":
			return filtered
		}
	}
	return v
}

var passwordValuePattern = regexp.MustCompile(`(?i)(<input\b[^>]*\btype\s*=\s*["']?(?:password|hidden)["']?[^>]*\bvalue\s*=\s*)("[^"]*"|'[^']*'|[^\s>]+)`)
var valueBeforeTypePattern = regexp.MustCompile(`(?i)(<input\b[^>]*\bvalue\s*=\s*)("[^"]*"|'[^']*'|[^\s>]+)([^>]*\btype\s*=\s*["']?(?:password|hidden)["']?)`)

// MaskMarkup убирает значения паролей и скрытых полей из HTML и прогоняет
// остальной текст через правила.
func (s *DataSanitizer) MaskMarkup(markup string) string {
	markup = passwordValuePattern.ReplaceAllString(markup, `${1}"`+filtered+`"`)
	markup = valueBeforeTypePattern.ReplaceAllString(markup, `${1}"`+filtered+`"${3}`)
	return s.Sanitize(markup)
}
