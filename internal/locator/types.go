package locator

import (
	"fmt"
	"strings"
)

// Type - закрытый набор видов локаторов.
type Type int

const (
	TypeCSS Type = iota
	TypeXPath
	TypeRole
)

func (t Type) String() string {
	switch t {
	case TypeCSS:
		return "CSS Selector"
	case TypeXPath:
		return "XPath"
	case TypeRole:
		return "Role Selector"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	switch string(b) {
	case "CSS Selector":
		*t = TypeCSS
	case "XPath":
		*t = TypeXPath
	case "Role Selector":
		*t = TypeRole
	default:
		return fmt.Errorf("unknown locator type %q", string(b))
	}
	return nil
}

// Strategy - стратегия, которой получен кандидат. Порядок констант совпадает
// с приоритетом генерации.
type Strategy int

const (
	StrategyID Strategy = iota
	StrategyAttribute
	StrategyClass
	StrategyRole
	StrategyAbsolutePath
)

func (s Strategy) String() string {
	switch s {
	case StrategyID:
		return "id"
	case StrategyAttribute:
		return "attribute"
	case StrategyClass:
		return "class"
	case StrategyRole:
		return "role"
	case StrategyAbsolutePath:
		return "absolute-path"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Strategy) Type() Type {
	switch s {
	case StrategyRole:
		return TypeRole
	case StrategyAbsolutePath:
		return TypeXPath
	}
	return TypeCSS
}

type Label string

const (
	LabelHigh   Label = "High"
	LabelMedium Label = "Medium"
	LabelLow    Label = "Low"
)

// rank используется для сравнения порогов: High > Medium > Low.
func (l Label) rank() int {
	switch l {
	case LabelHigh:
		return 3
	case LabelMedium:
		return 2
	case LabelLow:
		return 1
	}
	return 0
}

// AtLeast сообщает, что метка не ниже порога min.
func (l Label) AtLeast(min Label) bool {
	return l.rank() >= min.rank()
}

// ParseLabel разбирает порог стабильности без учёта регистра.
// Пустая строка означает "все", то есть Low.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return LabelHigh, nil
	case "medium":
		return LabelMedium, nil
	case "low", "", "all":
		return LabelLow, nil
	}
	return "", fmt.Errorf("unknown stability level %q (want High, Medium or Low)", s)
}

type FrameworkTag string

const (
	FrameworkPlaywrightOnly FrameworkTag = "Playwright"
	FrameworkSeleniumOnly   FrameworkTag = "Selenium"
	FrameworkBoth           FrameworkTag = "Both"
)

// Framework - фреймворк, выбранный потребителем отчёта.
type Framework string

const (
	Playwright Framework = "Playwright"
	Selenium   Framework = "Selenium"
)

// ParseFrameworks разбирает список вида "playwright,selenium".
func ParseFrameworks(s string) ([]Framework, error) {
	var out []Framework
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
			continue
		case "playwright", "pw":
			out = append(out, Playwright)
		case "selenium", "se":
			out = append(out, Selenium)
		case "both", "all":
			out = append(out, Playwright, Selenium)
		default:
			return nil, fmt.Errorf("unknown framework %q", part)
		}
	}
	return out, nil
}

// Key - идентифицирующая пара (атрибут, значение) кандидата.
// Для классов и ролей используется синтетическое имя атрибута.
type Key struct {
	Attr  string
	Value string
}

func (k Key) IsZero() bool { return k.Attr == "" }

const (
	keyClass = "class"
	keyRole  = "role"
)

// Candidate - локатор для одного элемента. Идентичность (Element, Type,
// Strategy, Value) фиксируется при создании; аннотации выставляют только
// ответственные фазы.
type Candidate struct {
	Element    int
	Tag        string
	CustomName string
	Type       Type
	Strategy   Strategy
	Value      string
	// Role и RoleName заполнены только для TypeRole.
	Role     string
	RoleName string
	Key      Key

	Dynamic   bool
	Duplicate bool
	Score     int
	Label     Label
	Framework FrameworkTag
	Warnings  []string

	Validated       *bool
	MatchCount      *int
	ValidationError *string
}

func (c *Candidate) addWarning(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// AddWarning добавляет предупреждение. Используется фазой валидации.
func (c *Candidate) AddWarning(msg string) {
	c.Warnings = append(c.Warnings, msg)
}

// IsValidated - была ли попытка валидации.
func (c *Candidate) IsValidated() bool {
	return c.Validated != nil && *c.Validated
}

// Config - настройки генерации.
type Config struct {
	// TestIDAttributes - дополнительные атрибуты-идентификаторы сверх id, name, data-testid.
	TestIDAttributes []string
	Scope            Scope
	Workers          int
}

type Scope string

const (
	ScopeAll         Scope = "all"
	ScopeInteractive Scope = "interactive"
)

func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ScopeAll, nil
	case "interactive":
		return ScopeInteractive, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

var DefaultTestIDAttributes = []string{"data-test", "data-qa", "data-cy"}

func DefaultConfig() Config {
	return Config{
		TestIDAttributes: append([]string(nil), DefaultTestIDAttributes...),
		Scope:            ScopeAll,
	}
}

// IdentifyingAttributes возвращает атрибуты для attribute-стратегии в порядке приоритета.
// id сюда не входит: у него своя стратегия.
func (c Config) IdentifyingAttributes() []string {
	out := []string{"name", "data-testid"}
	for _, a := range c.TestIDAttributes {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || a == "id" || contains(out, a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
