package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/multierr"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
)

// Порядок предпочтения типов при равном score.
var (
	playwrightOrder = map[string]int{
		locator.TypeRole.String():  0,
		locator.TypeCSS.String():   1,
		locator.TypeXPath.String(): 2,
	}
	seleniumOrder = map[string]int{
		locator.TypeCSS.String():   0,
		locator.TypeXPath.String(): 1,
	}
)

func supports(fw locator.Framework, tool locator.FrameworkTag) bool {
	switch fw {
	case locator.Playwright:
		return tool == locator.FrameworkPlaywrightOnly || tool == locator.FrameworkBoth
	case locator.Selenium:
		return tool == locator.FrameworkSeleniumOnly || tool == locator.FrameworkBoth
	}
	return false
}

func rank(order map[string]int, t string) int {
	if r, ok := order[t]; ok {
		return r
	}
	return len(order)
}

// bestPerName выбирает по одному локатору на custom_name: наибольший score,
// при равенстве тип по порядку предпочтения фреймворка.
func bestPerName(recs []Record, fw locator.Framework) []Record {
	order := playwrightOrder
	if fw == locator.Selenium {
		order = seleniumOrder
	}

	best := make(map[string]Record)
	for _, rec := range recs {
		if !supports(fw, rec.AutomationTool) {
			continue
		}
		name := rec.CustomName
		if name == "" {
			name = "Element"
			rec.CustomName = name
		}
		cur, ok := best[name]
		switch {
		case !ok, rec.StabilityScore > cur.StabilityScore:
			best[name] = rec
		case rec.StabilityScore == cur.StabilityScore && rank(order, rec.LocatorType) < rank(order, cur.LocatorType):
			best[name] = rec
		}
	}

	out := make([]Record, 0, len(best))
	for _, rec := range best {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomName < out[j].CustomName })
	return out
}

var (
	nonWord   = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	camelEdge = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

func snakeCase(name string) string {
	s := nonWord.ReplaceAllString(name, "_")
	s = camelEdge.ReplaceAllString(s, "${1}_${2}")
	s = strings.Trim(strings.ToLower(s), "_")
	if s == "" {
		return "element"
	}
	if unicode.IsDigit(rune(s[0])) {
		s = "e_" + s
	}
	return s
}

func pyQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// uniqueVars следит, чтобы разные имена не схлопнулись в одно поле.
type uniqueVars map[string]int

func (u uniqueVars) next(name string) string {
	v := snakeCase(name)
	u[v]++
	if n := u[v]; n > 1 {
		return fmt.Sprintf("%s_%d", v, n)
	}
	return v
}

func PlaywrightPageObject(r *Report, className string) string {
	var b strings.Builder
	b.WriteString("from playwright.sync_api import Page\n\n\n")
	fmt.Fprintf(&b, "class %s:\n", className)
	b.WriteString("    def __init__(self, page: Page):\n")
	b.WriteString("        self.page = page\n")

	vars := uniqueVars{}
	for _, rec := range bestPerName(r.Locators, locator.Playwright) {
		v := vars.next(rec.CustomName)
		switch rec.LocatorType {
		case locator.TypeRole.String():
			role, name, err := locator.ParseRoleSelector(rec.LocatorValue)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "        self.%s = page.get_by_role(\"%s\", name=\"%s\", exact=True)\n", v, pyQuote(role), pyQuote(name))
		case locator.TypeXPath.String():
			fmt.Fprintf(&b, "        self.%s = page.locator(\"xpath=%s\")\n", v, pyQuote(rec.LocatorValue))
		default:
			fmt.Fprintf(&b, "        self.%s = page.locator(\"%s\")\n", v, pyQuote(rec.LocatorValue))
		}
	}
	return b.String()
}

func SeleniumPageObject(r *Report, className string) string {
	var b strings.Builder
	b.WriteString("from selenium.webdriver.common.by import By\n\n\n")
	fmt.Fprintf(&b, "class %s:\n", className)
	b.WriteString("    def __init__(self, driver):\n")
	b.WriteString("        self.driver = driver\n")

	vars := uniqueVars{}
	for _, rec := range bestPerName(r.Locators, locator.Selenium) {
		v := vars.next(rec.CustomName)
		by := "By.CSS_SELECTOR"
		if rec.LocatorType == locator.TypeXPath.String() {
			by = "By.XPATH"
		}
		fmt.Fprintf(&b, "        self.%s = driver.find_element(%s, \"%s\")\n", v, by, pyQuote(rec.LocatorValue))
	}
	return b.String()
}

// Paths - пути к записанным файлам; пустая строка значит "не записан".
type Paths struct {
	JSON       string `json:"locators_json"`
	Markdown   string `json:"report_md"`
	Playwright string `json:"playwright_pom,omitempty"`
	Selenium   string `json:"selenium_pom,omitempty"`
	Page       string `json:"page_py,omitempty"`
}

var classNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// WriteAll пишет все артефакты в dir. page.py появляется, только когда
// выбран ровно один фреймворк.
func WriteAll(dir string, r *Report, frameworks []locator.Framework, className string) (Paths, error) {
	if className == "" {
		className = "Page"
	}
	if !classNamePattern.MatchString(className) {
		return Paths{}, fmt.Errorf("недопустимое имя класса %q", className)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}

	var p Paths
	p.JSON = filepath.Join(dir, "locators.json")
	if err := writeFile(p.JSON, func(f *os.File) error { return WriteJSON(f, r) }); err != nil {
		return p, err
	}
	p.Markdown = filepath.Join(dir, "report.md")
	if err := writeFile(p.Markdown, func(f *os.File) error { return WriteMarkdown(f, r) }); err != nil {
		return p, err
	}

	for _, fw := range frameworks {
		var code string
		switch fw {
		case locator.Playwright:
			code = PlaywrightPageObject(r, className)
			p.Playwright = filepath.Join(dir, className+"_Playwright.py")
			if err := os.WriteFile(p.Playwright, []byte(code), 0o644); err != nil {
				return p, err
			}
		case locator.Selenium:
			code = SeleniumPageObject(r, className)
			p.Selenium = filepath.Join(dir, className+"_Selenium.py")
			if err := os.WriteFile(p.Selenium, []byte(code), 0o644); err != nil {
				return p, err
			}
		}
		if len(frameworks) == 1 {
			p.Page = filepath.Join(dir, "page.py")
			if err := os.WriteFile(p.Page, []byte(code), 0o644); err != nil {
				return p, err
			}
		}
	}
	return p, nil
}

func writeFile(path string, fn func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return fn(f)
}
