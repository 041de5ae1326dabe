package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/sanitizer"
)

const (
	maxSampleChars   = 6000
	maxTextChars     = 80
	maxListedCands   = 40
	defaultMaxEnrich = 20
)

const enrichSystem = "You are a senior test automation engineer. You write short, stable locators for web UI tests and never invent attributes that are not present in the element."

const analyzeSystem = "You are an expert at analyzing web page structure for UI test automation."

// Enricher просит модель предложить локатор там, где детерминированные
// стратегии дали только слабые варианты.
type Enricher struct {
	client      *Client
	maxElements int
	policy      *bluemonday.Policy
}

func NewEnricher(client *Client, maxElements int) *Enricher {
	if maxElements <= 0 {
		maxElements = defaultMaxEnrich
	}
	return &Enricher{client: client, maxElements: maxElements, policy: samplePolicy()}
}

// samplePolicy оставляет в образце страницы только структуру и атрибуты,
// по которым строятся локаторы. Скрипты, стили и value выбрасываются.
func samplePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"html", "body", "header", "footer", "main", "nav", "section", "article", "aside",
		"form", "fieldset", "legend", "label", "input", "button", "select", "option", "textarea",
		"a", "h1", "h2", "h3", "h4", "ul", "ol", "li", "table", "tr", "td", "th", "div", "span", "p", "img",
	)
	p.AllowAttrs("id", "class", "name", "type", "role", "placeholder", "title", "alt", "for",
		"aria-label", "data-testid", "data-test", "data-qa", "href").Globally()
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https")
	return p
}

func (e *Enricher) Client() *Client { return e.client }

// Enrich возвращает предложение модели для одного элемента.
func (e *Enricher) Enrich(ctx context.Context, el dom.Element, cands []*locator.Candidate) (*Suggestion, error) {
	prompt := e.elementPrompt(el, cands)

	var s Suggestion
	if err := e.client.completeJSON(ctx, enrichSystem, prompt, &s); err != nil {
		return nil, fmt.Errorf("enrich element %d: %w", el.Index, err)
	}
	s.Element = el.Index
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	s.Selector = strings.TrimSpace(s.Selector)
	if s.Selector == "" {
		return nil, fmt.Errorf("enrich element %d: пустой селектор в ответе", el.Index)
	}
	if s.Type != "css" && s.Type != "xpath" {
		return nil, fmt.Errorf("enrich element %d: неизвестный тип селектора %q", el.Index, s.Type)
	}
	return &s, nil
}

func (e *Enricher) elementPrompt(el dom.Element, cands []*locator.Candidate) string {
	var b strings.Builder
	b.WriteString("Element:\n")
	b.WriteString(ElementSnippet(e.client.sanitizer, el))
	b.WriteString("\n\nExisting locators (score out of 10):\n")
	for _, c := range cands {
		fmt.Fprintf(&b, "- %s %s [%d %s]", c.Type, e.client.sanitizer.Sanitize(c.Value), c.Score, c.Label)
		if len(c.Warnings) > 0 {
			fmt.Fprintf(&b, " warnings: %s", strings.Join(c.Warnings, "; "))
		}
		b.WriteByte('\n')
	}
	b.WriteString(`
Propose one locator that is more stable than the existing ones. Prefer attributes,
accessible text and short relative paths over positions and generated ids.

Respond in JSON format:
{
  "custom_name": "CamelCase name for a page object field",
  "type": "css" or "xpath",
  "selector": "the locator",
  "reasoning": "one sentence"
}`)
	return b.String()
}

// ElementSnippet печатает открывающий тег элемента с замаскированными значениями.
func ElementSnippet(s *sanitizer.DataSanitizer, el dom.Element) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(el.Tag)
	for _, a := range el.Attrs {
		v := a.Value
		if a.Name == "value" {
			v = sanitizer.MaskElementValue(el)
		}
		fmt.Fprintf(&b, " %s=%q", a.Name, s.SanitizeValue(v))
	}
	b.WriteByte('>')
	if text := truncate(el.Text, maxTextChars); text != "" {
		b.WriteString(s.Sanitize(text))
	}
	if el.LabelText != "" {
		fmt.Fprintf(&b, " (label: %s)", s.Sanitize(truncate(el.LabelText, maxTextChars)))
	}
	return b.String()
}

// EnrichWeak обогащает элементы, у которых нет ни одного локатора уровня High.
// Ошибки по отдельным элементам не прерывают проход и возвращаются вместе.
func (e *Enricher) EnrichWeak(ctx context.Context, doc *dom.Document, cands []*locator.Candidate) ([]Suggestion, error) {
	byElement := make(map[int][]*locator.Candidate)
	for _, c := range cands {
		byElement[c.Element] = append(byElement[c.Element], c)
	}

	weak := make([]int, 0, len(byElement))
	for idx, list := range byElement {
		if !hasHigh(list) {
			weak = append(weak, idx)
		}
	}
	sort.Ints(weak)
	if len(weak) > e.maxElements {
		e.client.log.Info("обогащение ограничено",
			zap.Int("weak", len(weak)), zap.Int("limit", e.maxElements))
		weak = weak[:e.maxElements]
	}

	var (
		out  []Suggestion
		errs error
	)
	for _, idx := range weak {
		if err := ctx.Err(); err != nil {
			return out, multierr.Append(errs, err)
		}
		s, err := e.Enrich(ctx, doc.Element(idx), byElement[idx])
		if errors.Is(err, ErrCircuitOpen) {
			e.client.log.Warn("llm недоступен, обогащение остановлено", zap.Int("element", idx))
			return out, multierr.Append(errs, err)
		}
		if err != nil {
			e.client.log.Warn("llm enrich failed", zap.Int("element", idx), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, *s)
	}
	return out, errs
}

func hasHigh(list []*locator.Candidate) bool {
	for _, c := range list {
		if c.Label == locator.LabelHigh {
			return true
		}
	}
	return false
}

var spaceRun = regexp.MustCompile(`\s+`)

// Sample готовит образец разметки для промпта: только разрешённые теги и
// атрибуты, секреты замаскированы, длина ограничена.
func (e *Enricher) Sample(markup string) string {
	clean := e.policy.Sanitize(markup)
	clean = e.client.sanitizer.MaskMarkup(clean)
	clean = spaceRun.ReplaceAllString(clean, " ")
	return truncate(strings.TrimSpace(clean), maxSampleChars)
}

// AnalyzePage описывает страницу: тип, назначение и ключевые элементы.
func (e *Enricher) AnalyzePage(ctx context.Context, markup string, cands []*locator.Candidate) (*PageAnalysis, error) {
	var b strings.Builder
	b.WriteString("Page markup sample:\n")
	b.WriteString(e.Sample(markup))
	b.WriteString("\n\nLocators found:\n")
	for i, c := range cands {
		if i == maxListedCands {
			fmt.Fprintf(&b, "... and %d more\n", len(cands)-maxListedCands)
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.CustomName, e.client.sanitizer.Sanitize(c.Value))
	}
	b.WriteString(`
Determine the page type (login, search, listing, form, dashboard, article, other),
summarize its purpose in one sentence and list the custom names of the elements a UI test
would interact with first.

Respond in JSON format:
{
  "page_type": "type",
  "summary": "one sentence",
  "key_elements": ["CustomName", "..."]
}`)

	var pa PageAnalysis
	if err := e.client.completeJSON(ctx, analyzeSystem, b.String(), &pa); err != nil {
		return nil, fmt.Errorf("analyze page: %w", err)
	}
	return &pa, nil
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
