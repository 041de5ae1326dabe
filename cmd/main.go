// Command smart-locator генерирует локаторы для Playwright и Selenium
// по URL, HTML-файлу или сырой разметке.
//
// Usage:
//
//	smart-locator -input https://example.com/login -min-stability high
//	smart-locator -input page.html -frameworks selenium -output ./out
//	smart-locator -console        # интерактивная консоль
//	smart-locator -serve          # HTTP API
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/browser"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/cli"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/cli/commands"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/config"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/database"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/export"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/llm"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/migrations"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/scanner"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/server"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/validate"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/webdriver"

	"go.uber.org/zap"
)

type flags struct {
	input        string
	frameworks   string
	output       string
	className    string
	minStability string
	scope        string
	js           bool
	validate     bool
	ai           bool
	authURL      string
	authUser     string
	authPass     string
	authState    string
	saveState    string
	console      bool
	serve        bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.input, "input", "", "URL, путь к HTML-файлу или сырая разметка")
	flag.StringVar(&f.frameworks, "frameworks", "", "playwright, selenium или оба через запятую (по умолчанию LOCATOR_FRAMEWORKS)")
	flag.StringVar(&f.output, "output", "output", "каталог для locators.json, report.md и Page Object; '-' печатает JSON в stdout")
	flag.StringVar(&f.className, "class-name", "Page", "имя класса Page Object")
	flag.StringVar(&f.minStability, "min-stability", "", "порог стабильности: high, medium, low")
	flag.StringVar(&f.scope, "scope", "", "all или interactive")
	flag.BoolVar(&f.js, "js", false, "рендерить страницу в браузере перед разбором")
	flag.BoolVar(&f.validate, "validate", false, "проверить селекторы на живой странице")
	flag.BoolVar(&f.ai, "ai", false, "подсказки LLM для слабых элементов")
	flag.StringVar(&f.authURL, "auth-url", "", "страница логина")
	flag.StringVar(&f.authUser, "auth-user", "", "логин")
	flag.StringVar(&f.authPass, "auth-pass", "", "пароль")
	flag.StringVar(&f.authState, "auth-state", "", "сохранённый storage state")
	flag.StringVar(&f.saveState, "auth-save-state", "", "куда сохранить storage state после входа")
	flag.BoolVar(&f.console, "console", false, "интерактивная консоль")
	flag.BoolVar(&f.serve, "serve", false, "запустить HTTP API")
	flag.Parse()
	return f
}

// applyTo: флаги перекрывают окружение и файл правил.
func (f flags) applyTo(cfg *config.Cfg) {
	if f.authURL != "" {
		cfg.Auth.URL = f.authURL
	}
	if f.authUser != "" {
		cfg.Auth.User = f.authUser
	}
	if f.authPass != "" {
		cfg.Auth.Password = f.authPass
	}
	if f.authState != "" {
		cfg.Auth.StorageState = f.authState
	}
	if f.minStability != "" {
		cfg.Locator.MinStability = f.minStability
	}
	if f.frameworks != "" {
		cfg.Locator.Frameworks = strings.Split(f.frameworks, ",")
	}
	if f.scope != "" {
		cfg.Locator.Scope = f.scope
	}
}

func main() {
	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	f.applyTo(cfg)

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f, log); err != nil {
		log.Error("Завершение с ошибкой", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Cfg, f flags, log *logger.Zap) error {
	minLabel, err := locator.ParseLabel(cfg.Locator.MinStability)
	if err != nil {
		return err
	}
	fws, err := locator.ParseFrameworks(strings.Join(cfg.Locator.Frameworks, ","))
	if err != nil {
		return err
	}
	scope, err := locator.ParseScope(cfg.Locator.Scope)
	if err != nil {
		return err
	}

	if err := migrations.Run(cfg, log); err != nil {
		return fmt.Errorf("миграции: %w", err)
	}

	// Без БД сканер работает, но история запусков недоступна.
	var repo *database.Repository
	if cfg.Database.Enabled() {
		db, err := database.New(cfg, log)
		if err != nil {
			return fmt.Errorf("подключение к БД: %w", err)
		}
		defer db.Close(log)
		repo = database.NewRepository(db.DB)
	}

	var reqLogger llm.Logger
	if repo != nil {
		reqLogger = repo
	}
	llmClient, err := llm.NewClient(llm.Config{
		APIKey:     cfg.OpenAI.KeyAI,
		Model:      cfg.OpenAI.Model,
		MaxTokens:  cfg.OpenAI.MaxTokens,
		CacheSize:  cfg.OpenAI.CacheSize,
		RatePerMin: cfg.OpenAI.RatePerMin,
	}, reqLogger, log)
	if err != nil {
		return err
	}
	var enricher *llm.Enricher
	if llmClient != nil {
		enricher = llm.NewEnricher(llmClient, cfg.OpenAI.MaxEnrich)
	}

	opts := scanner.Options{
		Locator: locator.Config{
			TestIDAttributes: cfg.Locator.TestIDAttributes,
			Scope:            scope,
			Workers:          cfg.Locator.Workers,
		},
		Validation: validate.Config{
			Workers: cfg.Validation.Workers,
			Timeout: cfg.Validation.Timeout,
		},
		AuthTimeout:  cfg.Validation.AuthTimeout,
		FetchTimeout: cfg.Browser.Timeout,
		Retries:      3,
		RetryDelay:   500 * time.Millisecond,
		NewBrowser:   browserFactory(cfg, f.saveState, log),
		Enricher:     enricher,
		Log:          log,
	}
	if strings.EqualFold(cfg.Validation.Resolver, "selenium") {
		opts.NewLiveResolver = webdriverFactory(cfg, log)
	}
	if repo != nil {
		opts.Store = repo
	}
	sc := scanner.New(opts)

	var runs server.RunStore
	var consoleRuns commands.RunStore
	if repo != nil {
		runs = repo
		consoleRuns = repo
	}

	switch {
	case f.serve:
		return server.New(cfg, log, sc, runs).Run(ctx)

	case f.console:
		settings := &commands.Settings{
			Frameworks:   fws,
			MinStability: minLabel,
			JS:           f.js,
			Validate:     f.validate,
			AI:           f.ai,
			OutputDir:    outputDir(f.output),
			ClassName:    f.className,
		}
		cli.New(sc, consoleRuns, settings, sc.AIEnabled(), log).Run(ctx)
		return nil
	}

	if strings.TrimSpace(f.input) == "" {
		flag.Usage()
		return errors.New("нужен -input, -console или -serve")
	}
	return scanOnce(ctx, sc, scanner.Request{
		Input:        f.input,
		Frameworks:   fws,
		MinStability: minLabel,
		ClassName:    f.className,
		JS:           f.js,
		Validate:     f.validate,
		AI:           f.ai,
		OutputDir:    outputDir(f.output),
		AllowFiles:   true,
	}, f.output == "-", log)
}

func outputDir(o string) string {
	if o == "-" {
		return ""
	}
	return o
}

func scanOnce(ctx context.Context, sc *scanner.Scanner, req scanner.Request, stdout bool, log *logger.Zap) error {
	res, err := sc.Scan(ctx, req)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Warn(w, zap.String("run_id", res.RunID))
	}
	if stdout {
		return export.WriteJSON(os.Stdout, res.Report)
	}
	fields := []zap.Field{
		zap.String("run_id", res.RunID),
		zap.Int("elements", res.Report.Summary.TotalElements),
		zap.Int("locators", res.Report.Summary.TotalLocators),
	}
	if res.Paths != nil {
		fields = append(fields, zap.String("locators_json", res.Paths.JSON))
	}
	log.Info("Готово", fields...)
	return nil
}

func browserFactory(cfg *config.Cfg, saveState string, log *logger.Zap) func(ctx context.Context) (scanner.Browser, error) {
	return func(ctx context.Context) (scanner.Browser, error) {
		br := browser.New(browser.Config{
			Headless:     cfg.Browser.Headless,
			UserDataDir:  cfg.Browser.UserDataDir,
			BrowsersPath: cfg.Browser.BrowsersPath,
			Display:      cfg.Browser.Display,
			Timeout:      cfg.Browser.Timeout,
			StorageState: cfg.Auth.StorageState,
			Login: browser.Login{
				URL:             cfg.Auth.URL,
				User:            cfg.Auth.User,
				Password:        cfg.Auth.Password,
				UserSelector:    cfg.Auth.UserSelector,
				PassSelector:    cfg.Auth.PassSelector,
				SubmitSelector:  cfg.Auth.SubmitSelector,
				WaitSelector:    cfg.Auth.WaitSelector,
				WaitURLContains: cfg.Auth.WaitURLContains,
				SaveStatePath:   saveState,
			},
		})
		if err := br.Launch(ctx); err != nil {
			log.Warn("Браузер недоступен", zap.Error(err))
			_ = br.Close()
			return nil, err
		}
		return br, nil
	}
}

func webdriverFactory(cfg *config.Cfg, log *logger.Zap) func(ctx context.Context) (scanner.LiveResolver, error) {
	return func(ctx context.Context) (scanner.LiveResolver, error) {
		r, err := webdriver.New(webdriver.Config{
			URL:      cfg.Selenium.URL,
			Browser:  cfg.Selenium.Browser,
			Headless: cfg.Browser.Headless,
		}, log)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}
