package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"
)

func (b *PlaywrightBrowser) WaitForSelector(ctx context.Context, selector string) error {
	page := b.getPage()
	if page == nil {
		return fmt.Errorf("браузер не запущен")
	}

	if err := ValidateSelector(selector); err != nil {
		return fmt.Errorf("невалидный селектор: %w", err)
	}
	selector, _ = NormalizeSelector(selector)

	return withContext(ctx, func() error {
		_, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(float64(b.cfg.Timeout.Milliseconds())),
		})
		return err
	})
}

func (b *PlaywrightBrowser) WaitForLoadState(ctx context.Context, state string) error {
	page := b.getPage()
	if page == nil {
		return fmt.Errorf("браузер не запущен")
	}

	var loadState *playwright.LoadState
	switch strings.ToLower(state) {
	case "load":
		loadState = playwright.LoadStateLoad
	case "domcontentloaded":
		loadState = playwright.LoadStateDomcontentloaded
	case "networkidle":
		loadState = playwright.LoadStateNetworkidle
	default:
		loadState = playwright.LoadStateLoad
	}

	return withContext(ctx, func() error {
		return page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   loadState,
			Timeout: playwright.Float(float64(b.cfg.Timeout.Milliseconds())),
		})
	})
}

// WaitForURLContains ждёт, пока адрес страницы не будет содержать part.
func (b *PlaywrightBrowser) WaitForURLContains(ctx context.Context, part string) error {
	page := b.getPage()
	if page == nil {
		return fmt.Errorf("браузер не запущен")
	}

	re := regexp.MustCompile(regexp.QuoteMeta(part))
	return withContext(ctx, func() error {
		return page.WaitForURL(re, playwright.PageWaitForURLOptions{
			Timeout: playwright.Float(float64(b.cfg.Timeout.Milliseconds())),
		})
	})
}

// withContext выполняет блокирующий вызов драйвера, не дольше чем живёт ctx.
func withContext(ctx context.Context, fn func() error) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}
