package locator

import (
	"fmt"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
)

// Generate выдаёт всех жизнеспособных кандидатов для элемента i в порядке
// приоритета стратегий: id, атрибуты, классы, роль, абсолютный XPath.
// Проверка уникальности CSS идёт по модели документа, не по браузеру.
func Generate(doc *dom.Document, freq *Frequency, cfg Config, i int) []*Candidate {
	el := doc.Element(i)
	var out []*Candidate

	newCandidate := func(s Strategy, value string, key Key) *Candidate {
		c := &Candidate{
			Element:  i,
			Tag:      el.Tag,
			Type:     s.Type(),
			Strategy: s,
			Value:    value,
			Key:      key,
		}
		out = append(out, c)
		return c
	}

	if id := el.ID(); strings.TrimSpace(id) != "" {
		key := Key{Attr: "id", Value: id}
		c := newCandidate(StrategyID, "#"+cssIdent(id), key)
		warnNonUnique(c, freq.Count(key))
	}

	for _, attr := range cfg.IdentifyingAttributes() {
		v, ok := el.Attr(attr)
		if !ok || v == "" {
			continue
		}
		key := Key{Attr: attr, Value: v}
		c := newCandidate(StrategyAttribute, fmt.Sprintf(`[%s="%s"]`, attr, cssString(v)), key)
		warnNonUnique(c, freq.Count(key))
	}

	if classes := el.Classes(); len(classes) > 0 {
		key, _ := classKey(el)
		c := newCandidate(StrategyClass, classSelector(el.Tag, classes), key)
		warnNonUnique(c, freq.ClassMatches(el.Tag, classes))
	}

	if role, name := AccessibleRole(el), AccessibleName(el); role != "" && name != "" {
		c := newCandidate(StrategyRole, RoleSelector(role, name), roleKey(role, name))
		c.Role = role
		c.RoleName = name
	}

	newCandidate(StrategyAbsolutePath, AbsoluteXPath(doc, i), Key{})

	return out
}

func warnNonUnique(c *Candidate, n int) {
	if n != 1 {
		c.addWarning("non-unique: selector matches %d elements", n)
	}
}

func classSelector(tag string, classes []string) string {
	var sb strings.Builder
	sb.WriteString(cssIdent(tag))
	for _, c := range classes {
		sb.WriteByte('.')
		sb.WriteString(cssIdent(c))
	}
	return sb.String()
}

// AbsoluteXPath строит путь вида /html[1]/body[1]/div[2] по тегам и позициям.
func AbsoluteXPath(doc *dom.Document, i int) string {
	var sb strings.Builder
	for _, idx := range doc.Path(i) {
		el := doc.Element(idx)
		fmt.Fprintf(&sb, "/%s[%d]", xpathName(el.Tag), el.Position)
	}
	return sb.String()
}

// xpathName - теги вне NCName (svg:path и т.п.) адресуются через name(),
// позиция при этом считается уже среди отфильтрованных узлов.
func xpathName(tag string) string {
	for _, r := range tag {
		if !(r == '-' || r == '_' || r == '.' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return fmt.Sprintf("*[name()='%s']", tag)
		}
	}
	return tag
}

// cssString экранирует значение для строки в двойных кавычках.
// Управляющие символы внутри строки CSS недопустимы и пишутся hex-escape.
func cssString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == 0:
			sb.WriteRune('\uFFFD')
		case r >= 0x1 && r <= 0x1f, r == 0x7f:
			fmt.Fprintf(&sb, `\%x `, r)
		case r == '"', r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// cssIdent экранирует идентификатор по правилам CSS.escape.
func cssIdent(s string) string {
	var sb strings.Builder
	for i, r := range s {
		switch {
		case r == 0:
			sb.WriteRune('\uFFFD')
		case r >= 0x1 && r <= 0x1f, r == 0x7f:
			fmt.Fprintf(&sb, `\%x `, r)
		case i == 0 && r >= '0' && r <= '9':
			fmt.Fprintf(&sb, `\%x `, r)
		case i == 1 && r >= '0' && r <= '9' && s[0] == '-':
			fmt.Fprintf(&sb, `\%x `, r)
		case i == 0 && r == '-' && len(s) == 1:
			sb.WriteString(`\-`)
		case r >= 0x80, r == '-', r == '_',
			r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			sb.WriteRune(r)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
