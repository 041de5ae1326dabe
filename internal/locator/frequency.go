package locator

import (
	"sort"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
)

// Frequency - число элементов на каждую идентифицирующую пару по всему документу.
// Строится один раз до генерации и дальше только читается.
type Frequency struct {
	counts map[Key]int
	// byClass: класс -> индексы элементов с ним, по порядку документа.
	byClass map[string][]int
	tags    []string
	classes [][]string
}

// BuildFrequency проходит документ целиком. Учитываются id, атрибуты из
// cfg.IdentifyingAttributes, сигнатуры классов (тег + набор классов) и ролей.
func BuildFrequency(doc *dom.Document, cfg Config) *Frequency {
	f := &Frequency{
		counts:  make(map[Key]int),
		byClass: make(map[string][]int),
		tags:    make([]string, doc.Len()),
		classes: make([][]string, doc.Len()),
	}
	attrs := cfg.IdentifyingAttributes()

	for i, el := range doc.Elements() {
		f.tags[i] = el.Tag
		f.classes[i] = el.Classes()
		for _, c := range f.classes[i] {
			f.byClass[c] = append(f.byClass[c], i)
		}

		if id := el.ID(); strings.TrimSpace(id) != "" {
			f.counts[Key{Attr: "id", Value: id}]++
		}
		for _, a := range attrs {
			if v, ok := el.Attr(a); ok && v != "" {
				f.counts[Key{Attr: a, Value: v}]++
			}
		}
		if k, ok := classKeyOf(el.Tag, f.classes[i]); ok {
			f.counts[k]++
		}
		if role, name := AccessibleRole(el), AccessibleName(el); role != "" && name != "" {
			f.counts[roleKey(role, name)]++
		}
	}
	return f
}

func (f *Frequency) Count(k Key) int {
	if f == nil {
		return 0
	}
	return f.counts[k]
}

// ClassMatches - сколько элементов адресует селектор tag.c1.c2: совпадение
// тега и наличие всех классов. Перебирается только самый короткий список
// элементов среди классов селектора.
func (f *Frequency) ClassMatches(tag string, classes []string) int {
	if f == nil || len(classes) == 0 {
		return 0
	}
	shortest := f.byClass[classes[0]]
	for _, c := range classes[1:] {
		if l := f.byClass[c]; len(l) < len(shortest) {
			shortest = l
		}
	}

	n := 0
	for _, i := range shortest {
		if f.tags[i] == tag && containsAll(f.classes[i], classes) {
			n++
		}
	}
	return n
}

func containsAll(own, want []string) bool {
	for _, w := range want {
		found := false
		for _, c := range own {
			if c == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Len - число различных ключей.
func (f *Frequency) Len() int { return len(f.counts) }

func classKey(el dom.Element) (Key, bool) {
	return classKeyOf(el.Tag, el.Classes())
}

func classKeyOf(tag string, classes []string) (Key, bool) {
	if len(classes) == 0 {
		return Key{}, false
	}
	sorted := append([]string(nil), classes...)
	sort.Strings(sorted)
	return Key{Attr: keyClass, Value: tag + "." + strings.Join(sorted, ".")}, true
}

func roleKey(role, name string) Key {
	return Key{Attr: keyRole, Value: role + "\x00" + name}
}
