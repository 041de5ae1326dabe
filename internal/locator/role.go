package locator

import (
	"fmt"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
)

// maxRoleName - длиннее этого accessible name не годится для точного совпадения.
const maxRoleName = 100

// AccessibleRole возвращает явную роль (первый токен role) или неявную
// по семантике тега. Пустая строка - роли нет.
func AccessibleRole(el dom.Element) string {
	if r := strings.Fields(el.AttrValue("role")); len(r) > 0 {
		return strings.ToLower(r[0])
	}

	switch el.Tag {
	case "a", "area":
		if _, ok := el.Attr("href"); ok {
			return "link"
		}
	case "button":
		return "button"
	case "input":
		return inputRole(el)
	case "select":
		if _, multi := el.Attr("multiple"); multi {
			return "listbox"
		}
		return "combobox"
	case "textarea":
		return "textbox"
	case "img":
		if strings.TrimSpace(el.AttrValue("alt")) != "" {
			return "img"
		}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "nav":
		return "navigation"
	case "main":
		return "main"
	case "aside":
		return "complementary"
	case "article":
		return "article"
	case "dialog":
		return "dialog"
	case "ul", "ol":
		return "list"
	case "li":
		return "listitem"
	case "table":
		return "table"
	case "option":
		return "option"
	case "progress":
		return "progressbar"
	}
	return ""
}

func inputRole(el dom.Element) string {
	switch strings.ToLower(el.AttrValue("type")) {
	case "", "text", "email", "tel", "url":
		if _, ok := el.Attr("list"); ok {
			return "combobox"
		}
		return "textbox"
	case "search":
		return "searchbox"
	case "button", "submit", "reset", "image":
		return "button"
	case "checkbox":
		return "checkbox"
	case "radio":
		return "radio"
	case "range":
		return "slider"
	case "number":
		return "spinbutton"
	}
	return ""
}

// nameFromContent - роли, которые берут accessible name из содержимого.
// Списки, таблицы, ориентиры и поля ввода текстом потомков не называются.
var nameFromContent = map[string]bool{
	"button":           true,
	"link":             true,
	"heading":          true,
	"listitem":         true,
	"option":           true,
	"cell":             true,
	"gridcell":         true,
	"columnheader":     true,
	"rowheader":        true,
	"tab":              true,
	"menuitem":         true,
	"menuitemcheckbox": true,
	"menuitemradio":    true,
	"checkbox":         true,
	"radio":            true,
	"switch":           true,
	"treeitem":         true,
	"tooltip":          true,
}

// AccessibleName: aria-label, затем текст метки, видимый текст (только для
// ролей из nameFromContent), и в конце alt/title/placeholder (value для кнопок-input).
func AccessibleName(el dom.Element) string {
	var text string
	if nameFromContent[AccessibleRole(el)] {
		text = el.Text
	}
	candidates := []string{
		el.AttrValue("aria-label"),
		el.LabelText,
		text,
		el.AttrValue("alt"),
		el.AttrValue("title"),
		el.AttrValue("placeholder"),
	}
	if el.Tag == "input" {
		switch strings.ToLower(el.AttrValue("type")) {
		case "button", "submit", "reset":
			candidates = append(candidates, el.AttrValue("value"))
		}
	}
	for _, c := range candidates {
		c = strings.Join(strings.Fields(c), " ")
		if c != "" {
			if len(c) > maxRoleName {
				return ""
			}
			return c
		}
	}
	return ""
}

// RoleSelector формирует селектор в синтаксисе role-движка Playwright.
func RoleSelector(role, name string) string {
	return fmt.Sprintf(`role=%s[name="%s"]`, role, escapeQuoted(name))
}

// ParseRoleSelector - обратная операция для резолверов.
func ParseRoleSelector(v string) (role, name string, err error) {
	rest, ok := strings.CutPrefix(v, "role=")
	if !ok {
		return "", "", fmt.Errorf("role selector must start with role=: %q", v)
	}
	open := strings.Index(rest, `[name="`)
	if open <= 0 || !strings.HasSuffix(rest, `"]`) {
		return "", "", fmt.Errorf("malformed role selector %q", v)
	}
	role = rest[:open]
	raw := rest[open+len(`[name="`) : len(rest)-len(`"]`)]
	return role, unescapeQuoted(raw), nil
}

func escapeQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescapeQuoted(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
