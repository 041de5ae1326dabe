package locator

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
)

const maxNameWords = 5

// CustomName строит CamelCase-имя для page object: видимый текст кнопок и
// ссылок, метка, aria-label, placeholder, тестовые атрибуты, id, первый класс
// и в конце тег. Суффикс зависит от тега.
func CustomName(el dom.Element) string {
	var visible string
	switch {
	case (el.Tag == "button" || el.Tag == "a") && el.Text != "":
		visible = el.Text
	case el.LabelText != "":
		visible = el.LabelText
	case strings.TrimSpace(el.AttrValue("aria-label")) != "":
		visible = el.AttrValue("aria-label")
	case (el.Tag == "input" || el.Tag == "textarea") && strings.TrimSpace(el.AttrValue("placeholder")) != "":
		visible = el.AttrValue("placeholder")
	}

	base := camelCase(visible)
	if base == "" {
		for _, a := range []string{"data-testid", "data-test", "data-qa", "data-cy", "name"} {
			if base = camelCase(el.AttrValue(a)); base != "" {
				break
			}
		}
	}
	if base == "" {
		base = camelCase(el.ID())
	}
	if base == "" {
		if cls := el.Classes(); len(cls) > 0 {
			base = camelCase(cls[0])
		}
	}
	if base == "" {
		base = camelCase(el.Tag)
	}
	if base == "" || unicode.IsDigit(rune(base[0])) {
		base = "El" + base
	}

	suffix := nameSuffix(el)
	if strings.HasSuffix(base, suffix) {
		return base
	}
	return base + suffix
}

func nameSuffix(el dom.Element) string {
	switch el.Tag {
	case "a":
		return "Link"
	case "button":
		return "Button"
	case "input":
		switch strings.ToLower(el.AttrValue("type")) {
		case "submit", "button", "reset", "image":
			return "Button"
		}
		return "Input"
	case "select":
		return "Select"
	case "textarea":
		return "Textarea"
	}
	return "Element"
}

// camelCase оставляет только ASCII-буквы и цифры: имя идёт в код page object.
func camelCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if len(words) > maxNameWords {
		words = words[:maxNameWords]
	}
	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(strings.ToLower(w[1:]))
	}
	return sb.String()
}

// namer раздаёт уникальные имена: повтор получает числовой суффикс.
type namer struct {
	used map[string]int
}

func newNamer() *namer {
	return &namer{used: make(map[string]int)}
}

func (n *namer) unique(name string) string {
	n.used[name]++
	if c := n.used[name]; c > 1 {
		candidate := name + strconv.Itoa(c)
		for n.used[candidate] > 0 {
			c++
			candidate = name + strconv.Itoa(c)
		}
		n.used[candidate]++
		return candidate
	}
	return name
}
