// Package export превращает результат сканирования в файлы для потребителей:
// locators.json, markdown-отчёт и Page Object классы на Python.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/llm"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
)

type Meta struct {
	RunID         string              `json:"run_id,omitempty"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Source        string              `json:"source"`
	TotalElements int                 `json:"total_elements"`
	TotalLocators int                 `json:"total_locators"`
	Frameworks    []locator.Framework `json:"frameworks"`
	MinStability  locator.Label       `json:"min_stability"`
	Validated     bool                `json:"validated"`
	AIEnriched    bool                `json:"ai_enriched"`
	ClassName     string              `json:"class_name"`
}

// Record - запись локатора в выходном формате.
type Record struct {
	Element         int                  `json:"element_index"`
	Tag             string               `json:"tag"`
	CustomName      string               `json:"custom_name"`
	LocatorType     string               `json:"locator_type"`
	LocatorValue    string               `json:"locator_value"`
	Strategy        string               `json:"strategy"`
	Stability       locator.Label        `json:"stability"`
	StabilityScore  int                  `json:"stability_score"`
	AutomationTool  locator.FrameworkTag `json:"automation_tool"`
	PlaywrightCode  string               `json:"playwright_code,omitempty"`
	SeleniumCode    string               `json:"selenium_code,omitempty"`
	Validated       *bool                `json:"validated,omitempty"`
	MatchCount      *int                 `json:"match_count,omitempty"`
	ValidationError *string              `json:"validation_error,omitempty"`
	Dynamic         bool                 `json:"dynamic"`
	Duplicate       bool                 `json:"duplicate"`
	Warnings        []string             `json:"warnings"`
}

type AIEnrichment struct {
	Suggestions []llm.Suggestion  `json:"suggestions,omitempty"`
	Page        *llm.PageAnalysis `json:"page_analysis,omitempty"`
}

type Report struct {
	Metadata     Meta            `json:"metadata"`
	Summary      locator.Summary `json:"summary"`
	Locators     []Record        `json:"locators"`
	AIEnrichment *AIEnrichment   `json:"ai_enrichment,omitempty"`
	Errors       []string        `json:"errors,omitempty"`
}

// BuildReport собирает отчёт. TotalLocators в meta выставляется по кандидатам.
func BuildReport(meta Meta, cands []*locator.Candidate, summary locator.Summary) *Report {
	meta.TotalLocators = len(cands)
	if meta.TotalElements == 0 {
		meta.TotalElements = summary.TotalElements
	}
	r := &Report{Metadata: meta, Summary: summary, Locators: make([]Record, 0, len(cands))}
	for _, c := range cands {
		r.Locators = append(r.Locators, NewRecord(c))
	}
	return r
}

func NewRecord(c *locator.Candidate) Record {
	warnings := c.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Record{
		Element:         c.Element,
		Tag:             c.Tag,
		CustomName:      c.CustomName,
		LocatorType:     c.Type.String(),
		LocatorValue:    c.Value,
		Strategy:        c.Strategy.String(),
		Stability:       c.Label,
		StabilityScore:  c.Score,
		AutomationTool:  c.Framework,
		PlaywrightCode:  locator.PlaywrightCode(c),
		SeleniumCode:    locator.SeleniumCode(c),
		Validated:       c.Validated,
		MatchCount:      c.MatchCount,
		ValidationError: c.ValidationError,
		Dynamic:         c.Dynamic,
		Duplicate:       c.Duplicate,
		Warnings:        warnings,
	}
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// WriteMarkdown печатает сводку и таблицу локаторов.
func WriteMarkdown(w io.Writer, r *Report) error {
	var b strings.Builder
	m := r.Metadata
	fmt.Fprintf(&b, "# Locators: %s\n\n", m.ClassName)
	fmt.Fprintf(&b, "- Source: %s\n", mdEscape(m.Source))
	fmt.Fprintf(&b, "- Generated: %s\n", m.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Elements: %d, locators: %d\n", r.Summary.TotalElements, r.Summary.TotalLocators)
	fmt.Fprintf(&b, "- Stability: High %d, Medium %d, Low %d\n",
		r.Summary.ByStability[locator.LabelHigh], r.Summary.ByStability[locator.LabelMedium], r.Summary.ByStability[locator.LabelLow])
	fmt.Fprintf(&b, "- Types: CSS %d, XPath %d, Role %d\n",
		r.Summary.ByType[locator.TypeCSS.String()], r.Summary.ByType[locator.TypeXPath.String()], r.Summary.ByType[locator.TypeRole.String()])
	if m.Validated {
		fmt.Fprintf(&b, "- Validated: %d\n", r.Summary.Validated)
	}

	b.WriteString("\n| Name | Type | Locator | Stability | Score | Tool | Matches | Warnings |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, rec := range r.Locators {
		matches := "-"
		if rec.MatchCount != nil {
			matches = fmt.Sprint(*rec.MatchCount)
		}
		fmt.Fprintf(&b, "| %s | %s | `%s` | %s | %d | %s | %s | %s |\n",
			mdEscape(rec.CustomName), rec.LocatorType, mdEscape(rec.LocatorValue), rec.Stability,
			rec.StabilityScore, rec.AutomationTool, matches, mdEscape(strings.Join(rec.Warnings, "; ")))
	}

	if ai := r.AIEnrichment; ai != nil {
		b.WriteString("\n## AI suggestions\n\n")
		if ai.Page != nil {
			fmt.Fprintf(&b, "Page type: %s. %s\n\n", ai.Page.PageType, ai.Page.Summary)
		}
		for _, s := range ai.Suggestions {
			fmt.Fprintf(&b, "- %s (%s): `%s` %s\n", s.CustomName, s.Type, mdEscape(s.Selector), s.Reasoning)
		}
	}
	if len(r.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
