// Package dom строит неизменяемую индексированную модель документа,
// по которой генерируются локаторы.
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseError - документ не удалось интерпретировать как разметку.
type ParseError struct {
	Reason string
	Input  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse: " + e.Reason
	if e.Input != "" {
		msg += fmt.Sprintf(" (input %q)", e.Input)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Attr - пара имя/значение атрибута в исходном порядке.
type Attr struct {
	Name  string
	Value string
}

// Element - узел документа. Связи хранятся индексами, а не указателями.
type Element struct {
	Index     int
	Tag       string
	Attrs     []Attr
	Text      string
	LabelText string
	Parent    int
	Children  []int
	// Position - 1-based номер среди соседей с тем же тегом.
	Position int
}

func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue возвращает значение атрибута или пустую строку.
func (e Element) AttrValue(name string) string {
	v, _ := e.Attr(name)
	return v
}

// ID возвращает значение id как есть: #x и [id=...] сравнивают его целиком,
// пробелы по краям тоже часть значения.
func (e Element) ID() string {
	return e.AttrValue("id")
}

// Classes возвращает классы элемента без пустых токенов и повторов.
func (e Element) Classes() []string {
	raw := strings.Fields(e.AttrValue("class"))
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Document - упорядоченная (document order) последовательность элементов.
type Document struct {
	elements []Element
	title    string
}

func (d *Document) Len() int { return len(d.elements) }

func (d *Document) Element(i int) Element { return d.elements[i] }

// Elements отдаёт копию среза, чтобы вызывающий не мог изменить модель.
func (d *Document) Elements() []Element {
	out := make([]Element, len(d.elements))
	copy(out, d.elements)
	return out
}

func (d *Document) Title() string { return d.title }

// Parent возвращает индекс родителя или -1 для корня.
func (d *Document) Parent(i int) int { return d.elements[i].Parent }

func (d *Document) Children(i int) []int { return d.elements[i].Children }

// Siblings возвращает индексы соседних элементов (без самого i).
func (d *Document) Siblings(i int) []int {
	p := d.elements[i].Parent
	if p < 0 {
		return nil
	}
	var out []int
	for _, c := range d.elements[p].Children {
		if c != i {
			out = append(out, c)
		}
	}
	return out
}

// PrevSibling возвращает предыдущий элемент-сосед или -1.
func (d *Document) PrevSibling(i int) int {
	p := d.elements[i].Parent
	if p < 0 {
		return -1
	}
	kids := d.elements[p].Children
	for k, c := range kids {
		if c == i && k > 0 {
			return kids[k-1]
		}
	}
	return -1
}

// NextSibling возвращает следующий элемент-сосед или -1.
func (d *Document) NextSibling(i int) int {
	p := d.elements[i].Parent
	if p < 0 {
		return -1
	}
	kids := d.elements[p].Children
	for k, c := range kids {
		if c == i && k+1 < len(kids) {
			return kids[k+1]
		}
	}
	return -1
}

// Path возвращает цепочку индексов от корня до i включительно.
func (d *Document) Path(i int) []int {
	var rev []int
	for cur := i; cur >= 0; cur = d.elements[cur].Parent {
		rev = append(rev, cur)
	}
	out := make([]int, len(rev))
	for k, idx := range rev {
		out[len(rev)-1-k] = idx
	}
	return out
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Parse разбирает HTML толерантно к битой разметке. Ошибка возвращается только
// для пустого ввода или ввода без единого тега.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Reason: "read input", Err: err}
	}
	src := string(data)
	if strings.TrimSpace(src) == "" {
		return nil, &ParseError{Reason: "empty input"}
	}
	if !looksLikeMarkup(src) {
		return nil, &ParseError{Reason: "input is not markup", Input: preview(src)}
	}

	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, &ParseError{Reason: "html parse", Input: preview(src), Err: err}
	}

	b := &builder{}
	b.walk(root, -1)
	if len(b.elements) == 0 {
		return nil, &ParseError{Reason: "no elements", Input: preview(src)}
	}
	b.resolveLabels()

	return &Document{elements: b.elements, title: b.title}, nil
}

// looksLikeMarkup - хотя бы один открывающий тег вида <x.
func looksLikeMarkup(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		c := s[i+1]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '!' {
			return true
		}
	}
	return false
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

type builder struct {
	elements []Element
	title    string
	// labels: id -> текст <label for=id>
	labels map[string]string
	// wrapped: индекс элемента -> текст охватывающего <label>
	wrapped map[int]string
}

func (b *builder) walk(n *html.Node, parent int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		idx := len(b.elements)
		el := Element{
			Index:  idx,
			Tag:    strings.ToLower(c.Data),
			Attrs:  attrs(c),
			Parent: parent,
		}
		el.Text = visibleText(c)
		el.Position = position(c)
		b.elements = append(b.elements, el)
		if parent >= 0 {
			b.elements[parent].Children = append(b.elements[parent].Children, idx)
		}

		switch c.DataAtom {
		case atom.Title:
			if b.title == "" {
				b.title = el.Text
			}
		case atom.Label:
			b.collectLabel(c, el)
		}

		b.walk(c, idx)
	}
}

func (b *builder) collectLabel(n *html.Node, el Element) {
	if el.Text == "" {
		return
	}
	if forID, ok := el.Attr("for"); ok && forID != "" {
		if b.labels == nil {
			b.labels = make(map[string]string)
		}
		if _, exists := b.labels[forID]; !exists {
			b.labels[forID] = el.Text
		}
		return
	}
	// <label>Email <input></label>: контролы внутри получают текст метки.
	// Индексы потомков ещё не назначены, поэтому считаем их по порядку обхода.
	next := len(b.elements)
	var mark func(*html.Node)
	mark = func(m *html.Node) {
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if isFormControl(c.DataAtom) {
				if b.wrapped == nil {
					b.wrapped = make(map[int]string)
				}
				b.wrapped[next] = el.Text
			}
			next++
			mark(c)
		}
	}
	mark(n)
}

func (b *builder) resolveLabels() {
	for i := range b.elements {
		el := &b.elements[i]
		if !isFormControl(atom.Lookup([]byte(el.Tag))) {
			continue
		}
		if id := el.ID(); id != "" {
			if t, ok := b.labels[id]; ok {
				el.LabelText = t
				continue
			}
		}
		if t, ok := b.wrapped[i]; ok {
			el.LabelText = t
		}
	}
}

func isFormControl(a atom.Atom) bool {
	switch a {
	case atom.Input, atom.Select, atom.Textarea, atom.Button:
		return true
	}
	return false
}

// attrs сохраняет порядок; при повторе имени побеждает первое вхождение.
func attrs(n *html.Node) []Attr {
	if len(n.Attr) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(n.Attr))
	out := make([]Attr, 0, len(n.Attr))
	for _, a := range n.Attr {
		name := strings.ToLower(a.Key)
		if a.Namespace != "" {
			name = a.Namespace + ":" + name
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Attr{Name: name, Value: a.Val})
	}
	return out
}

func position(n *html.Node) int {
	pos := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && strings.EqualFold(s.Data, n.Data) {
			pos++
		}
	}
	return pos
}

func visibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(m *html.Node) {
		switch m.Type {
		case html.TextNode:
			sb.WriteString(m.Data)
			sb.WriteByte(' ')
			return
		case html.ElementNode:
			switch m.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
