package locator

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	uuidPattern      = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	timestampPattern = regexp.MustCompile(`20\d{2}[-_/]?\d{2}[-_/]?\d{2}`)
)

const (
	minNumericToken = 4
	minHexToken     = 8
)

// LooksDynamic - значение похоже на сгенерированное: UUID, числовой токен
// от 4 цифр, hex-токен от 8 символов с цифрой, отметка времени.
// Hex-токен без цифр не считается: из букв a-f складываются обычные слова
// (feedback, deadbeef, decade), и такие классы и id стабильны.
func LooksDynamic(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if uuidPattern.MatchString(v) || timestampPattern.MatchString(v) {
		return true
	}
	for _, tok := range tokens(v) {
		if len(tok) >= minNumericToken && isDigits(tok) {
			return true
		}
		// без цифры это может быть слово из a-f
		if len(tok) >= minHexToken && isHex(tok) && strings.ContainsAny(tok, "0123456789") {
			return true
		}
	}
	return false
}

// tokens режет значение по разделителям, типичным для id и классов.
func tokens(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		switch r {
		case '-', '_', ':', '.', '/', ' ', '[', ']', '(', ')', '#', '=', '"', '\'':
			return true
		}
		return false
	})
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

// definingValues - значения, от которых зависит селектор кандидата.
func definingValues(c *Candidate) []string {
	switch c.Strategy {
	case StrategyID, StrategyAttribute:
		return []string{c.Key.Value}
	case StrategyClass:
		// ключ: tag.c1.c2, тег не проверяем
		parts := strings.Split(c.Key.Value, ".")
		if len(parts) > 1 {
			return parts[1:]
		}
	case StrategyRole:
		return []string{c.RoleName}
	}
	return nil
}

// Detect выставляет флаги dynamic и duplicate. Оценку не трогает.
func Detect(c *Candidate, freq *Frequency) {
	if !c.Key.IsZero() {
		if n := freq.Count(c.Key); n > 1 {
			c.Duplicate = true
			c.Warnings = append(c.Warnings, duplicateWarning(c, n))
		}
	}

	for _, v := range definingValues(c) {
		if LooksDynamic(v) {
			c.Dynamic = true
			c.addWarning("%s appears dynamic", subject(c))
			break
		}
	}
}

func subject(c *Candidate) string {
	switch c.Strategy {
	case StrategyID:
		return "id"
	case StrategyAttribute:
		return c.Key.Attr
	case StrategyClass:
		return "class token"
	case StrategyRole:
		return "accessible name"
	}
	return "value"
}

func duplicateWarning(c *Candidate, n int) string {
	switch c.Strategy {
	case StrategyClass:
		return fmt.Sprintf("duplicate class list shared by %d elements", n)
	case StrategyRole:
		return fmt.Sprintf("duplicate role %s with name %q shared by %d elements", c.Role, c.RoleName, n)
	}
	return fmt.Sprintf("duplicate %s %q shared by %d elements", c.Key.Attr, c.Key.Value, n)
}
