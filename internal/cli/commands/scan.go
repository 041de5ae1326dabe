package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/cli/ui"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/scanner"

	"go.uber.org/zap"
)

type Scanner interface {
	Scan(ctx context.Context, req scanner.Request) (*scanner.Result, error)
}

// Settings - параметры, с которыми консоль запускает сканирование.
type Settings struct {
	Frameworks   []locator.Framework
	MinStability locator.Label
	JS           bool
	Validate     bool
	AI           bool
	OutputDir    string
	ClassName    string
}

func (s Settings) Request(input string) scanner.Request {
	return scanner.Request{
		Input:        input,
		Frameworks:   s.Frameworks,
		MinStability: s.MinStability,
		ClassName:    s.ClassName,
		JS:           s.JS,
		Validate:     s.Validate,
		AI:           s.AI,
		OutputDir:    s.OutputDir,
		AllowFiles:   true,
	}
}

// maxRows - сколько локаторов печатать в консоль; полный список в locators.json.
const maxRows = 40

// ScanHandler обрабатывает scan и команды настроек
type ScanHandler struct {
	scanner  Scanner
	settings *Settings
	out      io.Writer
	log      *zap.Logger
}

func NewScanHandler(sc Scanner, settings *Settings, out io.Writer, log *zap.Logger) *ScanHandler {
	return &ScanHandler{
		scanner:  sc,
		settings: settings,
		out:      out,
		log:      log,
	}
}

// Scan запускает сканирование и печатает результат
func (h *ScanHandler) Scan(ctx context.Context, input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		ui.Errorf(h.out, "Укажите URL, путь к файлу или HTML")
		return
	}

	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconPlay+" Сканирование:"+ui.ColorReset+" %s\n", preview(input))
	res, err := h.scanner.Scan(ctx, h.settings.Request(input))
	if err != nil {
		h.log.Error("Ошибка сканирования", zap.Error(err))
		ui.Errorf(h.out, "Ошибка: %v", err)
		return
	}

	r := res.Report
	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== Запуск %s ==="+ui.ColorReset+"\n", res.RunID)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconDocument+" Источник:"+ui.ColorReset+" %s (%s)", preview(res.Source), res.SourceKind)
	if res.Rendered {
		fmt.Fprint(h.out, ui.ColorGray+" rendered"+ui.ColorReset)
	}
	fmt.Fprintln(h.out)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconChart+" Элементов:"+ui.ColorReset+" %d  "+ui.ColorCyan+"локаторов:"+ui.ColorReset+" %d  "+
		ui.ColorGreen+"High %d"+ui.ColorReset+"  "+ui.ColorYellow+"Medium %d"+ui.ColorReset+"  "+ui.ColorRed+"Low %d"+ui.ColorReset+"\n",
		r.Summary.TotalElements, r.Summary.TotalLocators,
		r.Summary.ByStability[locator.LabelHigh], r.Summary.ByStability[locator.LabelMedium], r.Summary.ByStability[locator.LabelLow])
	if res.Validation != nil {
		fmt.Fprintf(h.out, ui.ColorCyan+ui.IconCheckmark+" Валидация:"+ui.ColorReset+" resolved %d, failed %d, skipped %d\n",
			res.Validation.Resolved, res.Validation.Failed, res.Validation.Skipped)
	}
	if res.AuthState != "" {
		fmt.Fprintf(h.out, ui.ColorCyan+ui.IconCog+" Авторизация:"+ui.ColorReset+" %s\n", res.AuthState)
	}

	fmt.Fprintln(h.out)
	for i, rec := range r.Locators {
		if i == maxRows {
			fmt.Fprintf(h.out, ui.ColorGray+"  ... ещё %d"+ui.ColorReset+"\n", len(r.Locators)-maxRows)
			break
		}
		color := ui.StabilityColor(rec.Stability)
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"%-24s"+ui.ColorReset+" %-13s %s%-6s %2d"+ui.ColorReset+"  %s",
			rec.CustomName, rec.LocatorType, color, rec.Stability, rec.StabilityScore, rec.LocatorValue)
		if rec.MatchCount != nil {
			if rec.Validated != nil && *rec.Validated {
				fmt.Fprint(h.out, ui.ColorGreen+" "+ui.IconCheckmark+ui.ColorReset)
			} else {
				fmt.Fprintf(h.out, ui.ColorRed+" %s %d"+ui.ColorReset, ui.IconCross, *rec.MatchCount)
			}
		}
		fmt.Fprintln(h.out)
	}

	if r.AIEnrichment != nil {
		fmt.Fprintf(h.out, "\n"+ui.ColorYellow+ui.IconBulb+" Подсказки LLM (%d):"+ui.ColorReset+"\n", len(r.AIEnrichment.Suggestions))
		for _, s := range r.AIEnrichment.Suggestions {
			fmt.Fprintf(h.out, "  "+ui.ColorBold+"%s"+ui.ColorReset+" %s %s\n", s.CustomName, s.Type, s.Selector)
			if s.Reasoning != "" {
				fmt.Fprintf(h.out, "    "+ui.ColorGray+"%s"+ui.ColorReset+"\n", s.Reasoning)
			}
		}
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintln(h.out)
		for _, w := range res.Warnings {
			ui.Warnf(h.out, "%s", w)
		}
	}
	if res.Paths != nil {
		fmt.Fprintf(h.out, "\n"+ui.ColorCyan+ui.IconFolder+" Файлы:"+ui.ColorReset+" %s\n", strings.Join(nonEmpty(
			res.Paths.JSON, res.Paths.Markdown, res.Paths.Playwright, res.Paths.Selenium, res.Paths.Page), ", "))
	}
	fmt.Fprintln(h.out)
}

// Set меняет одну настройку: min, fw, js, validate, ai, out, class.
func (h *ScanHandler) Set(key, value string) {
	value = strings.TrimSpace(value)
	switch key {
	case "min":
		l, err := locator.ParseLabel(value)
		if err != nil {
			ui.Errorf(h.out, "%v", err)
			return
		}
		h.settings.MinStability = l
	case "fw":
		fws, err := locator.ParseFrameworks(value)
		if err != nil {
			ui.Errorf(h.out, "%v", err)
			return
		}
		if len(fws) == 0 {
			fws = []locator.Framework{locator.Playwright, locator.Selenium}
		}
		h.settings.Frameworks = fws
	case "js", "validate", "ai":
		on, ok := parseSwitch(value)
		if !ok {
			ui.Errorf(h.out, "Ожидается on или off")
			return
		}
		switch key {
		case "js":
			h.settings.JS = on
		case "validate":
			h.settings.Validate = on
		default:
			h.settings.AI = on
		}
	case "out":
		h.settings.OutputDir = value
	case "class":
		if value == "" {
			value = "Page"
		}
		h.settings.ClassName = value
	default:
		ui.Errorf(h.out, "Неизвестная настройка %s", key)
		return
	}
	ui.Successf(h.out, "%s = %s", key, valueOrDash(value))
}

// Show печатает текущие настройки
func (h *ScanHandler) Show() {
	s := h.settings
	fws := make([]string, 0, len(s.Frameworks))
	for _, f := range s.Frameworks {
		fws = append(fws, string(f))
	}
	fmt.Fprintln(h.out, "\n"+ui.ColorBold+ui.IconCog+" Настройки:"+ui.ColorReset)
	fmt.Fprintf(h.out, "  min       %s%s"+ui.ColorReset+"\n", ui.StabilityColor(s.MinStability), s.MinStability)
	fmt.Fprintf(h.out, "  fw        %s\n", strings.Join(fws, ", "))
	fmt.Fprintf(h.out, "  js        %s\n", ui.OnOff(s.JS))
	fmt.Fprintf(h.out, "  validate  %s\n", ui.OnOff(s.Validate))
	fmt.Fprintf(h.out, "  ai        %s\n", ui.OnOff(s.AI))
	fmt.Fprintf(h.out, "  out       %s\n", valueOrDash(s.OutputDir))
	fmt.Fprintf(h.out, "  class     %s\n\n", s.ClassName)
}

func parseSwitch(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	}
	return false, false
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 80 {
		return string(r[:80]) + "..."
	}
	return s
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func nonEmpty(ss ...string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
