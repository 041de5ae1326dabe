package sanitizer

import "regexp"

const filtered = "[FILTERED]"

// regexRule заменяет совпадения шаблонов на replacement.
type regexRule struct {
	name        string
	patterns    []*regexp.Regexp
	replacement string
}

func (r *regexRule) Sanitize(text string) string {
	for _, p := range r.patterns {
		text = p.ReplaceAllString(text, r.replacement)
	}
	return text
}

func passwordRule() *regexRule {
	return &regexRule{
		name: "password",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(password|passwd|pwd|пароль)(\s*[:=]\s*)["']?[^"'\s]{3,}["']?`),
		},
		replacement: "${1}${2}" + filtered,
	}
}

func tokenRule() *regexRule {
	return &regexRule{
		name: "token",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(token|токен|api[_-]?key|api[_-]?secret|secret[_-]?key|access[_-]?token|access[_-]?key)(\s*[:=]\s*)["']?[a-zA-Z0-9_\-.]{16,}["']?`),
			regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-.]{16,}`),
		},
		replacement: "${1}${2}" + filtered,
	}
}

// Ключи провайдеров узнаются по префиксу и без имени поля.
func providerKeyRule() *regexRule {
	return &regexRule{
		name: "provider-key",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(sk|pk)[-_][a-zA-Z0-9_\-]{20,}`),
			regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{30,}`),
			regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		},
		replacement: filtered,
	}
}

func cookieRule() *regexRule {
	return &regexRule{
		name: "cookie",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)((?:set-)?cookie\s*[:=]\s*)["']?[^"'\n]{10,}["']?`),
			regexp.MustCompile(`(?i)(session[_-]?(?:id|token)\s*[:=]\s*)["']?[a-zA-Z0-9_-]{10,}["']?`),
		},
		replacement: "${1}" + filtered,
	}
}

func cardRule() *regexRule {
	return &regexRule{
		name: "card",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`),
			regexp.MustCompile(`(?i)(cvv2?|cvc2?)\s*[:=]\s*["']?\d{3,4}["']?`),
		},
		replacement: filtered,
	}
}

func emailRule() *regexRule {
	return &regexRule{
		name: "email",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
		},
		replacement: "[FILTERED_EMAIL]",
	}
}

// Телефон узнаём только по явному префиксу, иначе под маску попадают id и позиции.
func phoneRule() *regexRule {
	return &regexRule{
		name: "phone",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\+\d{1,3}\s?\(?\d{3}\)?\s?\d{3}[-.\s]?\d{2}[-.\s]?\d{2}`),
			regexp.MustCompile(`(?i)(phone|tel|телефон)\s*[:=]\s*["']?[+\d\s\-()]{7,}["']?`),
		},
		replacement: "[FILTERED_PHONE]",
	}
}

func defaultRules() []SanitizerRule {
	return []SanitizerRule{
		passwordRule(),
		tokenRule(),
		providerKeyRule(),
		cookieRule(),
		cardRule(),
		emailRule(),
		phoneRule(),
	}
}
