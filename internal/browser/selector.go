package browser

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// "button: Войти" - частая ошибка в ручных селекторах вместо :has-text().
	colonSpacePattern     = regexp.MustCompile(`^([^:]+):\s+(.+)$`)
	containsDoublePattern = regexp.MustCompile(`:contains\("([^"]*)"\)`)
	containsSinglePattern = regexp.MustCompile(`:contains\('([^']*)'\)`)
	containsBarePattern   = regexp.MustCompile(`:contains\(([^)"']+)\)`)
)

var knownPseudoClasses = []string{
	":hover", ":focus", ":active", ":visited", ":link", ":checked",
	":disabled", ":enabled", ":first-child", ":last-child", ":nth-child", ":nth-of-type",
	":has-text", ":has", ":not", ":contains",
}

// NormalizeSelector приводит селекторы из конфигурации (логин, ожидание)
// к синтаксису Playwright: jQuery :contains() превращается в :has-text().
// Второе значение сообщает, был ли селектор изменён.
func NormalizeSelector(selector string) (string, bool) {
	if selector == "" {
		return selector, false
	}

	normalized := selector
	changed := false

	if m := colonSpacePattern.FindStringSubmatch(normalized); m != nil {
		tagPart := strings.TrimSpace(m[1])
		textPart := strings.TrimSpace(m[2])
		if !hasKnownPseudo(normalized, tagPart) && tagPart != "" && textPart != "" {
			changed = true
			normalized = tagPart + `:has-text("` + strings.ReplaceAll(textPart, `"`, `\"`) + `")`
		}
	}

	normalized = containsDoublePattern.ReplaceAllStringFunc(normalized, func(match string) string {
		changed = true
		text := containsDoublePattern.FindStringSubmatch(match)[1]
		return `:has-text("` + text + `")`
	})
	normalized = containsSinglePattern.ReplaceAllStringFunc(normalized, func(match string) string {
		changed = true
		text := containsSinglePattern.FindStringSubmatch(match)[1]
		return `:has-text('` + text + `')`
	})
	normalized = containsBarePattern.ReplaceAllStringFunc(normalized, func(match string) string {
		changed = true
		text := strings.TrimSpace(containsBarePattern.FindStringSubmatch(match)[1])
		return `:has-text("` + text + `")`
	})

	return normalized, changed
}

func hasKnownPseudo(selector, tagPart string) bool {
	for _, pseudo := range knownPseudoClasses {
		if strings.HasSuffix(tagPart, pseudo) || strings.Contains(selector, pseudo+"(") {
			return true
		}
	}
	return false
}

// ValidateSelector отсекает то, что точно не селектор: пустую строку и URL.
func ValidateSelector(selector string) error {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return fmt.Errorf("селектор не может быть пустым")
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return fmt.Errorf("селектор не может быть URL: %s", selector)
	}
	if strings.Contains(trimmed, "://") {
		return fmt.Errorf("селектор не может содержать протокол (://): %s", selector)
	}
	return nil
}
