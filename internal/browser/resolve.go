package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
)

// Resolve считает элементы открытой страницы, которые адресует селектор.
// CSS и XPath идут через page.Locator, роли через GetByRole с точным именем.
func (b *PlaywrightBrowser) Resolve(ctx context.Context, typ locator.Type, value string) (int, error) {
	page := b.getPage()
	if page == nil {
		return 0, fmt.Errorf("браузер не запущен")
	}

	var loc playwright.Locator
	switch typ {
	case locator.TypeCSS:
		loc = page.Locator(value)
	case locator.TypeXPath:
		loc = page.Locator("xpath=" + value)
	case locator.TypeRole:
		role, name, err := locator.ParseRoleSelector(value)
		if err != nil {
			return 0, fmt.Errorf("invalid selector: %w", err)
		}
		loc = page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{
			Name:  name,
			Exact: playwright.Bool(true),
		})
	default:
		return 0, fmt.Errorf("selector type %s not supported", typ)
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := loc.Count()
		done <- result{n, err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-done:
		return r.n, r.err
	}
}
