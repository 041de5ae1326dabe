package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/multierr"
)

func New(cfg Config) *PlaywrightBrowser {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.NavigateTimeout == 0 {
		cfg.NavigateTimeout = 60 * time.Second // Navigate обычно дольше
	}
	if cfg.Engine == "" {
		cfg.Engine = "chromium"
	}

	return &PlaywrightBrowser{
		cfg: cfg,
	}
}

// getPage безопасно возвращает текущую страницу с read lock
func (b *PlaywrightBrowser) getPage() playwright.Page {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page
}

func (b *PlaywrightBrowser) setPage(page playwright.Page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.page = page
}

func (b *PlaywrightBrowser) getBrowserArgs() []string {
	return []string{
		"--no-sandbox",
	}
}

func (b *PlaywrightBrowser) getEnvMap() map[string]string {
	if b.cfg.Display != "" {
		return map[string]string{
			"DISPLAY": b.cfg.Display,
		}
	}
	return nil
}

func (b *PlaywrightBrowser) browserType(pw *playwright.Playwright) (playwright.BrowserType, error) {
	switch strings.ToLower(b.cfg.Engine) {
	case "chromium", "chrome":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("неизвестный движок браузера: %s", b.cfg.Engine)
}

func (b *PlaywrightBrowser) launchPersistent(bt playwright.BrowserType) error {
	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args:     b.getBrowserArgs(),
	}

	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	browserContext, err := bt.LaunchPersistentContext(b.cfg.UserDataDir, opts)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.context = browserContext
	b.mu.Unlock()

	pages := browserContext.Pages()
	var page playwright.Page
	if len(pages) == 0 {
		page, err = browserContext.NewPage()
		if err != nil {
			return err
		}
	} else {
		page = pages[0]
	}

	b.setPage(page)
	page.SetDefaultTimeout(float64(b.cfg.Timeout.Milliseconds()))
	return nil
}

func (b *PlaywrightBrowser) launchStandard(bt playwright.BrowserType) error {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args:     b.getBrowserArgs(),
	}

	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	browser, err := bt.Launch(opts)
	if err != nil {
		return err
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if b.cfg.StorageState != "" {
		if _, err := os.Stat(b.cfg.StorageState); err != nil {
			return fmt.Errorf("storage state %s: %w", b.cfg.StorageState, err)
		}
		ctxOpts.StorageStatePath = playwright.String(b.cfg.StorageState)
	}

	browserContext, err := browser.NewContext(ctxOpts)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.browser = browser
	b.context = browserContext
	b.mu.Unlock()

	page, err := browserContext.NewPage()
	if err != nil {
		return err
	}

	b.setPage(page)
	page.SetDefaultTimeout(float64(b.cfg.Timeout.Milliseconds()))
	return nil
}

func (b *PlaywrightBrowser) Launch(ctx context.Context) error {
	if b.cfg.BrowsersPath != "" {
		if err := os.Setenv("PLAYWRIGHT_BROWSERS_PATH", b.cfg.BrowsersPath); err != nil {
			return err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("запуск playwright: %w", err)
	}
	b.pw = pw

	bt, err := b.browserType(pw)
	if err != nil {
		return err
	}

	if b.cfg.UserDataDir != "" {
		return b.launchPersistent(bt)
	}

	return b.launchStandard(bt)
}

func (b *PlaywrightBrowser) Navigate(ctx context.Context, url string) error {
	page := b.getPage()
	if page == nil {
		return fmt.Errorf("браузер не запущен")
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigateTimeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
			Timeout:   playwright.Float(float64(b.cfg.NavigateTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		return fmt.Errorf("navigate timeout after %v: %w", b.cfg.NavigateTimeout, navCtx.Err())
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("navigation to %s: %w", url, err)
		}
	}

	return nil
}

// Render открывает url и возвращает разметку после выполнения JS.
// Страница остаётся открытой: по ней потом работает Resolve.
func (b *PlaywrightBrowser) Render(ctx context.Context, url string) (string, error) {
	if err := b.Navigate(ctx, url); err != nil {
		return "", err
	}
	if err := b.LoadLazyContent(ctx); err != nil {
		return "", err
	}
	return b.Content(ctx)
}

func (b *PlaywrightBrowser) Content(ctx context.Context) (string, error) {
	page := b.getPage()
	if page == nil {
		return "", fmt.Errorf("браузер не запущен")
	}

	if err := b.WaitForLoadState(ctx, "networkidle"); err != nil {
		return "", fmt.Errorf("ошибка ожидания загрузки страницы: %w", err)
	}

	return page.Content()
}

// CurrentURL - адрес открытой страницы.
func (b *PlaywrightBrowser) CurrentURL() string {
	page := b.getPage()
	if page == nil {
		return ""
	}
	return page.URL()
}

// SaveStorageState сохраняет cookies и localStorage текущего контекста в файл.
func (b *PlaywrightBrowser) SaveStorageState(path string) error {
	b.mu.RLock()
	bc := b.context
	b.mu.RUnlock()
	if bc == nil {
		return fmt.Errorf("браузер не запущен")
	}
	_, err := bc.StorageState(path)
	return err
}

func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.context != nil {
		err = multierr.Append(err, b.context.Close())
	}
	if b.browser != nil {
		err = multierr.Append(err, b.browser.Close())
	}
	if b.pw != nil {
		err = multierr.Append(err, b.pw.Stop())
	}
	b.page, b.context, b.browser, b.pw = nil, nil, nil, nil
	return err
}
