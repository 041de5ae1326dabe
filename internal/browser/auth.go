package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/playwright-community/playwright-go"
)

const (
	defaultUserSelector   = `input[type="email"], input[name="username"], input[name="email"], input[type="text"]`
	defaultPassSelector   = `input[type="password"]`
	defaultSubmitSelector = `button[type="submit"], input[type="submit"]`
)

// Authenticate готовит контекст к валидации. Если задан сценарий входа,
// он проходится на странице логина; иначе проверяется, что storage state
// был подгружен при запуске.
func (b *PlaywrightBrowser) Authenticate(ctx context.Context) error {
	login := b.cfg.Login
	if !login.Enabled() {
		if b.cfg.StorageState == "" {
			return nil
		}
		if _, err := os.Stat(b.cfg.StorageState); err != nil {
			return fmt.Errorf("storage state недоступен: %w", err)
		}
		return nil
	}

	userSel := orDefault(login.UserSelector, defaultUserSelector)
	passSel := orDefault(login.PassSelector, defaultPassSelector)
	submitSel := orDefault(login.SubmitSelector, defaultSubmitSelector)
	for _, s := range []string{userSel, passSel, submitSel} {
		if err := ValidateSelector(s); err != nil {
			return fmt.Errorf("селектор логина: %w", err)
		}
	}

	if err := b.Navigate(ctx, login.URL); err != nil {
		return fmt.Errorf("страница логина: %w", err)
	}

	page := b.getPage()
	if err := b.fill(ctx, page, userSel, login.User); err != nil {
		return fmt.Errorf("поле пользователя: %w", err)
	}
	if err := b.fill(ctx, page, passSel, login.Password); err != nil {
		return fmt.Errorf("поле пароля: %w", err)
	}

	submit, _ := NormalizeSelector(submitSel)
	if err := withContext(ctx, func() error {
		return page.Locator(submit).First().Click()
	}); err != nil {
		return fmt.Errorf("отправка формы: %w", err)
	}

	switch {
	case login.WaitSelector != "":
		if err := b.WaitForSelector(ctx, login.WaitSelector); err != nil {
			return fmt.Errorf("ожидание после входа: %w", err)
		}
	case login.WaitURLContains != "":
		if err := b.WaitForURLContains(ctx, login.WaitURLContains); err != nil {
			return fmt.Errorf("ожидание адреса после входа: %w", err)
		}
	default:
		if err := b.WaitForLoadState(ctx, "networkidle"); err != nil {
			return fmt.Errorf("ожидание загрузки после входа: %w", err)
		}
	}

	if login.SaveStatePath != "" {
		if err := b.SaveStorageState(login.SaveStatePath); err != nil {
			return fmt.Errorf("сохранение storage state: %w", err)
		}
	}
	return nil
}

func (b *PlaywrightBrowser) fill(ctx context.Context, page playwright.Page, selector, value string) error {
	if page == nil {
		return fmt.Errorf("браузер не запущен")
	}
	selector, _ = NormalizeSelector(selector)
	return withContext(ctx, func() error {
		return page.Locator(selector).First().Fill(value)
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
