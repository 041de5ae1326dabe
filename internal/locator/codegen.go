package locator

import (
	"fmt"
	"strings"
)

// PlaywrightCode - готовый к вставке сниппет для Playwright (Python).
func PlaywrightCode(c *Candidate) string {
	switch c.Type {
	case TypeCSS:
		return fmt.Sprintf(`page.locator("%s").click()`, pyQuote(c.Value))
	case TypeXPath:
		return fmt.Sprintf(`page.locator("xpath=%s").click()`, pyQuote(c.Value))
	case TypeRole:
		return fmt.Sprintf(`page.get_by_role("%s", name="%s").click()`, pyQuote(c.Role), pyQuote(c.RoleName))
	}
	return ""
}

// SeleniumCode - сниппет для Selenium (Python). Для ролей пусто: Selenium их не понимает.
func SeleniumCode(c *Candidate) string {
	switch c.Type {
	case TypeCSS:
		return fmt.Sprintf(`driver.find_element(By.CSS_SELECTOR, "%s").click()`, pyQuote(c.Value))
	case TypeXPath:
		return fmt.Sprintf(`driver.find_element(By.XPATH, "%s").click()`, pyQuote(c.Value))
	}
	return ""
}

func pyQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
