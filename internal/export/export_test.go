package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
)

func cand(name string, typ locator.Type, strat locator.Strategy, value string, score int) *locator.Candidate {
	c := &locator.Candidate{
		CustomName: name,
		Tag:        "button",
		Type:       typ,
		Strategy:   strat,
		Value:      value,
		Score:      score,
		Label:      locator.LabelFor(score),
		Framework:  locator.FrameworkFor(typ),
	}
	if typ == locator.TypeRole {
		c.Role, c.RoleName, _ = locator.ParseRoleSelector(value)
	}
	return c
}

func fixture() []*locator.Candidate {
	n := 1
	ok := true
	submitRole := cand("SubmitButton", locator.TypeRole, locator.StrategyRole, `role=button[name="Submit"]`, 8)
	submitCSS := cand("SubmitButton", locator.TypeCSS, locator.StrategyAttribute, `button[name="submit"]`, 8)
	submitCSS.Validated, submitCSS.MatchCount = &ok, &n
	return []*locator.Candidate{
		submitRole,
		submitCSS,
		cand("SubmitButton", locator.TypeXPath, locator.StrategyAbsolutePath, "/html[1]/body[1]/button[1]", 3),
		cand("Search-Box", locator.TypeCSS, locator.StrategyClass, `input.search|x`, 6),
	}
}

func TestBuildReport(t *testing.T) {
	cands := fixture()
	r := BuildReport(Meta{Source: "page.html", ClassName: "Page"}, cands, locator.Summarize(cands, 7))

	assert.Equal(t, 4, r.Metadata.TotalLocators)
	assert.Equal(t, 7, r.Metadata.TotalElements)
	require.Len(t, r.Locators, 4)

	role := r.Locators[0]
	assert.Equal(t, "Role Selector", role.LocatorType)
	assert.Equal(t, locator.FrameworkPlaywrightOnly, role.AutomationTool)
	assert.Contains(t, role.PlaywrightCode, `get_by_role("button", name="Submit")`)
	assert.Empty(t, role.SeleniumCode)
	assert.Nil(t, role.Validated)
	assert.NotNil(t, role.Warnings)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	locs := raw["locators"].([]any)
	first := locs[0].(map[string]any)
	_, hasValidated := first["validated"]
	assert.False(t, hasValidated, "невалидированные записи без поля validated")
	second := locs[1].(map[string]any)
	assert.Equal(t, true, second["validated"])
	assert.Equal(t, float64(1), second["match_count"])
	assert.Equal(t, "CSS Selector", second["locator_type"])
}

func TestPageObjects(t *testing.T) {
	r := BuildReport(Meta{}, fixture(), locator.Summary{})

	pw := PlaywrightPageObject(r, "LoginPage")
	assert.Contains(t, pw, "class LoginPage:")
	// при равном score Playwright предпочитает роль
	assert.Contains(t, pw, `self.submit_button = page.get_by_role("button", name="Submit", exact=True)`)
	assert.Contains(t, pw, `self.search_box = page.locator("input.search|x")`)
	assert.NotContains(t, pw, "xpath=")

	se := SeleniumPageObject(r, "LoginPage")
	assert.Contains(t, se, `self.submit_button = driver.find_element(By.CSS_SELECTOR, "button[name=\"submit\"]")`)
	assert.NotContains(t, se, "role=")
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "submit_button", snakeCase("SubmitButton"))
	assert.Equal(t, "search_box", snakeCase("Search-Box"))
	assert.Equal(t, "e_2fa_input", snakeCase("2faInput"))
	assert.Equal(t, "element", snakeCase("--"))

	u := uniqueVars{}
	assert.Equal(t, "search_box", u.next("SearchBox"))
	assert.Equal(t, "search_box_2", u.next("Search-Box"))
}

func TestWriteMarkdown(t *testing.T) {
	cands := fixture()
	r := BuildReport(Meta{Source: "x", ClassName: "Page", GeneratedAt: time.Unix(0, 0).UTC(), Validated: true}, cands, locator.Summarize(cands, 3))
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "# Locators: Page")
	assert.Contains(t, out, `input.search\|x`)
	assert.Contains(t, out, "- Validated: 1")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	r := BuildReport(Meta{}, fixture(), locator.Summary{})

	p, err := WriteAll(dir, r, []locator.Framework{locator.Playwright, locator.Selenium}, "Shop")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "locators.json"))
	assert.FileExists(t, filepath.Join(dir, "report.md"))
	assert.FileExists(t, filepath.Join(dir, "Shop_Playwright.py"))
	assert.FileExists(t, filepath.Join(dir, "Shop_Selenium.py"))
	assert.Empty(t, p.Page)
	assert.NoFileExists(t, filepath.Join(dir, "page.py"))

	one := filepath.Join(dir, "one")
	p, err = WriteAll(one, r, []locator.Framework{locator.Selenium}, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(one, "page.py"), p.Page)
	page, err := os.ReadFile(p.Page)
	require.NoError(t, err)
	sel, err := os.ReadFile(filepath.Join(one, "Page_Selenium.py"))
	require.NoError(t, err)
	assert.Equal(t, string(sel), string(page))

	_, err = WriteAll(dir, r, nil, "bad name")
	assert.Error(t, err)
}
