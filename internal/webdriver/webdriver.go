// Package webdriver проверяет CSS и XPath селекторы через WebDriver.
package webdriver

import (
	"context"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"go.uber.org/zap"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"
)

type Config struct {
	// URL удалённого WebDriver (Selenium Grid или chromedriver).
	URL      string
	Browser  string
	Headless bool
}

// Resolver - резолвер поверх WebDriver. Роли Selenium не поддерживает.
type Resolver struct {
	wd  selenium.WebDriver
	log *logger.Zap
}

// webDriver - часть selenium.WebDriver, нужная резолверу; в тестах подменяется.
type webDriver interface {
	FindElements(by, value string) ([]selenium.WebElement, error)
}

func New(cfg Config, log *logger.Zap) (*Resolver, error) {
	if cfg.Browser == "" {
		cfg.Browser = "chrome"
	}
	if log == nil {
		log = logger.Nop()
	}

	caps := selenium.Capabilities{
		"browserName": cfg.Browser,
	}
	if strings.EqualFold(cfg.Browser, "chrome") {
		args := []string{"--disable-dev-shm-usage", "--no-sandbox"}
		if cfg.Headless {
			args = append(args, "--headless=new")
		}
		caps.AddChrome(chrome.Capabilities{Args: args})
	}

	wd, err := selenium.NewRemote(caps, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	log.Info("WebDriver подключён", zap.String("url", cfg.URL), zap.String("browser", cfg.Browser))
	return &Resolver{wd: wd, log: log}, nil
}

// Navigate открывает страницу, по которой будут проверяться селекторы.
func (r *Resolver) Navigate(ctx context.Context, url string) error {
	return run(ctx, func() error {
		return r.wd.Get(url)
	})
}

func (r *Resolver) Resolve(ctx context.Context, typ locator.Type, value string) (int, error) {
	return resolve(ctx, r.wd, typ, value)
}

func resolve(ctx context.Context, wd webDriver, typ locator.Type, value string) (int, error) {
	var by string
	switch typ {
	case locator.TypeCSS:
		by = selenium.ByCSSSelector
	case locator.TypeXPath:
		by = selenium.ByXPATH
	default:
		return 0, fmt.Errorf("selector type %s not supported by selenium", typ)
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		els, err := wd.FindElements(by, value)
		done <- result{len(els), err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-done:
		if res.err != nil && isNoSuchElement(res.err) {
			return 0, nil
		}
		return res.n, res.err
	}
}

// isNoSuchElement: часть драйверов отвечает ошибкой вместо пустого списка.
func isNoSuchElement(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such element")
}

func (r *Resolver) Close() error {
	return r.wd.Quit()
}

func run(ctx context.Context, fn func() error) error {
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
