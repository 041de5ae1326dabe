// Package scanner проводит один запуск целиком: получение разметки, разбор,
// генерацию локаторов, валидацию, обогащение, отчёт и сохранение.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/database"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/export"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/fetch"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/llm"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/validate"
)

// Browser - живой браузер (Playwright): рендерит, входит и проверяет селекторы
// на открытой странице.
type Browser interface {
	fetch.Renderer
	validate.Resolver
	validate.Authenticator
	Navigate(ctx context.Context, url string) error
	Close() error
}

// LiveResolver - резолвер по URL без рендеринга (Selenium).
type LiveResolver interface {
	validate.Resolver
	Navigate(ctx context.Context, url string) error
	Close() error
}

// Store сохраняет запуски. Реализуется database.Repository.
type Store interface {
	CreateRun(ctx context.Context, run *database.ScanRun) error
	SaveLocators(ctx context.Context, runID string, recs []export.Record) error
	FinishRun(ctx context.Context, runID string, res database.RunResult) error
}

type Options struct {
	Locator     locator.Config
	Validation  validate.Config
	AuthTimeout time.Duration
	// FetchTimeout - таймаут HTTP-загрузки без браузера.
	FetchTimeout time.Duration
	Retries      int
	RetryDelay   time.Duration

	// NewBrowser запускает браузер; nil - JS-рендеринг и живая валидация недоступны.
	NewBrowser func(ctx context.Context) (Browser, error)
	// NewLiveResolver, если задан, заменяет браузер при валидации.
	NewLiveResolver func(ctx context.Context) (LiveResolver, error)
	Enricher        *llm.Enricher
	Store           Store
	Log             *logger.Zap
}

type Scanner struct {
	opts    Options
	fetcher *fetch.Fetcher
	engine  *locator.Engine
	log     *logger.Zap
}

func New(opts Options) *Scanner {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	return &Scanner{
		opts:    opts,
		fetcher: fetch.New(opts.FetchTimeout),
		engine:  locator.NewEngine(opts.Locator, opts.Log),
		log:     opts.Log,
	}
}

// Persistent - подключено ли хранилище.
func (s *Scanner) Persistent() bool { return s.opts.Store != nil }

// AIEnabled - доступно ли обогащение через LLM.
func (s *Scanner) AIEnabled() bool { return s.opts.Enricher != nil }

type Request struct {
	Input        string              `json:"input"`
	Frameworks   []locator.Framework `json:"frameworks"`
	MinStability locator.Label       `json:"min_stability"`
	ClassName    string              `json:"class_name"`
	JS           bool                `json:"js"`
	Validate     bool                `json:"validate"`
	AI           bool                `json:"ai"`
	// OutputDir - куда записать файлы; пусто - не записывать.
	OutputDir string `json:"-"`
	// AllowFiles разрешает путь к локальному файлу в Input. Ставит только консоль.
	AllowFiles bool `json:"-"`
	// CheckURL проверяет каждый редирект при загрузке без браузера.
	CheckURL func(u *url.URL) error `json:"-"`
}

func (r *Request) defaults() {
	if len(r.Frameworks) == 0 {
		r.Frameworks = []locator.Framework{locator.Playwright, locator.Selenium}
	}
	if r.MinStability == "" {
		r.MinStability = locator.LabelLow
	}
	if r.ClassName == "" {
		r.ClassName = "Page"
	}
}

type Result struct {
	RunID      string               `json:"run_id"`
	Source     string               `json:"source"`
	SourceKind string               `json:"source_kind"`
	Rendered   bool                 `json:"rendered"`
	Candidates []*locator.Candidate `json:"-"`
	Report     *export.Report       `json:"report"`
	Validation *validate.Stats      `json:"validation,omitempty"`
	AuthState  string               `json:"auth_state,omitempty"`
	Paths      *export.Paths        `json:"paths,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
	Document   *dom.Document        `json:"-"`
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// run - состояние одного запуска.
type run struct {
	req     Request
	res     *Result
	kind    fetch.Kind
	browser Browser
	session *validate.Session
	store   Store
}

// Scan выполняет запуск. Фатальны только ошибки получения и разбора разметки
// и генерации (*locator.StageError); сбои входа, валидации, LLM и сохранения
// попадают в Result.Warnings.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	req.defaults()
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		return nil, &locator.StageError{Stage: "fetch", Err: fetch.ErrEmptyInput}
	}

	r := &run{
		req:   req,
		kind:  fetch.Detect(req.Input),
		store: s.opts.Store,
		res:   &Result{RunID: uuid.NewString()},
	}
	r.res.SourceKind = r.kind.String()
	r.res.Source = sourceLabel(r.kind, req.Input)
	log := s.log.With(zap.String("run_id", r.res.RunID), zap.String("source", r.res.Source))

	s.createRun(ctx, r, log)

	res, err := s.scan(ctx, r, log)
	if r.browser != nil {
		if cerr := r.browser.Close(); cerr != nil {
			log.Warn("ошибка закрытия браузера", zap.Error(cerr))
		}
	}
	if err != nil {
		log.Error("Сканирование не удалось", zap.Error(err))
		s.finishRun(ctx, r, log, database.RunResult{Status: database.StatusFailed, Error: err.Error()})
		return nil, err
	}
	return res, nil
}

func sourceLabel(kind fetch.Kind, input string) string {
	if kind == fetch.KindMarkup {
		return "html_content"
	}
	return input
}

func (s *Scanner) scan(ctx context.Context, r *run, log *zap.Logger) (*Result, error) {
	req, res := r.req, r.res

	if r.kind.Live() && (req.JS || req.Validate) && s.opts.NewBrowser != nil {
		s.startBrowser(ctx, r, log)
	}

	var renderer fetch.Renderer
	if r.browser != nil && req.JS {
		renderer = r.browser
	}
	var src *fetch.Source
	err := retryWithBackoff(ctx, s.opts.Retries, s.opts.RetryDelay, func() error {
		var lerr error
		src, lerr = s.fetcher.Load(ctx, req.Input, req.JS, renderer, fetch.Policy{
			AllowFiles: req.AllowFiles,
			CheckURL:   req.CheckURL,
		})
		return lerr
	})
	if err != nil {
		return nil, &locator.StageError{Stage: "fetch", Input: req.Input, Err: err}
	}
	res.Rendered = src.Rendered
	if req.JS && r.kind.Live() && !src.Rendered {
		res.warn("JS rendering unavailable, static markup used")
	}

	doc, err := dom.ParseString(src.Markup)
	if err != nil {
		return nil, &locator.StageError{Stage: "parse", Input: req.Input, Err: err}
	}
	res.Document = doc

	cands, err := s.engine.Run(ctx, doc)
	if err != nil {
		return nil, err
	}

	opts := locator.Options{MinStability: req.MinStability, Frameworks: req.Frameworks}
	final := locator.Aggregate(cands, opts)

	if req.Validate {
		s.validate(ctx, r, src, final, log)
		// Aggregate идемпотентна, повторный проход фиксирует итоговый порядок
		final = locator.Aggregate(final, opts)
	}
	res.Candidates = final

	summary := locator.Summarize(final, doc.Len())
	report := export.BuildReport(export.Meta{
		RunID:         res.RunID,
		GeneratedAt:   time.Now(),
		Source:        res.Source,
		TotalElements: doc.Len(),
		Frameworks:    req.Frameworks,
		MinStability:  req.MinStability,
		Validated:     res.Validation != nil && res.Validation.Resolved+res.Validation.Failed > 0,
		ClassName:     req.ClassName,
	}, final, summary)

	if req.AI {
		report.AIEnrichment = s.enrich(ctx, r, doc, src.Markup, final, log)
		report.Metadata.AIEnriched = report.AIEnrichment != nil
	}

	report.Errors = res.Warnings
	res.Report = report

	if req.OutputDir != "" {
		paths, err := export.WriteAll(req.OutputDir, report, req.Frameworks, req.ClassName)
		if err != nil {
			return nil, &locator.StageError{Stage: "export", Input: req.OutputDir, Err: err}
		}
		res.Paths = &paths
	}

	s.saveRun(ctx, r, report, log)

	log.Info("Сканирование завершено",
		zap.Int("elements", doc.Len()),
		zap.Int("locators", len(final)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// startBrowser запускает браузер и сразу проходит аутентификацию, чтобы
// рендеринг шёл уже в авторизованном контексте. Неудачный вход не прерывает
// генерацию: валидация просто будет пропущена.
func (s *Scanner) startBrowser(ctx context.Context, r *run, log *zap.Logger) {
	br, err := s.opts.NewBrowser(ctx)
	if err != nil {
		log.Warn("браузер недоступен", zap.Error(err))
		r.res.warn("browser unavailable: %v", err)
		return
	}
	r.browser = br

	r.session = validate.NewSession(br, s.opts.AuthTimeout)
	if err := r.session.Authenticate(ctx); err != nil {
		log.Warn("аутентификация не удалась", zap.Error(err))
		r.res.warn("authentication failed, validation skipped: %v", err)
	}
	r.res.AuthState = r.session.State().String()
}

func (s *Scanner) validate(ctx context.Context, r *run, src *fetch.Source, cands []*locator.Candidate, log *zap.Logger) {
	res := r.res
	if !r.kind.Live() {
		res.warn("validation requires a URL input, skipped")
		return
	}
	if r.session != nil && r.session.State() == validate.StateFailed {
		res.Validation = &validate.Stats{Skipped: len(cands)}
		return
	}

	resolver, session, cleanup, err := s.pickResolver(ctx, r, src, log)
	if err != nil {
		res.warn("validation skipped: %v", err)
		return
	}
	defer cleanup()

	v := validate.New(resolver, session, s.opts.Validation, s.log)
	stats, err := v.Validate(ctx, cands)
	res.Validation = &stats
	if session != nil {
		res.AuthState = session.State().String()
	}
	if err != nil {
		var aerr *validate.AuthError
		if errors.As(err, &aerr) {
			res.warn("authentication failed, validation skipped: %v", err)
		} else {
			res.warn("validation incomplete: %v", err)
		}
	}
}

// pickResolver: Selenium, если настроен; иначе открытая в браузере страница;
// без браузера - разметка, полученная по HTTP.
func (s *Scanner) pickResolver(ctx context.Context, r *run, src *fetch.Source, log *zap.Logger) (validate.Resolver, *validate.Session, func(), error) {
	noop := func() {}

	if s.opts.NewLiveResolver != nil {
		lr, err := s.opts.NewLiveResolver(ctx)
		if err == nil {
			err = lr.Navigate(ctx, r.req.Input)
			if err != nil {
				_ = lr.Close()
			}
		}
		if err == nil {
			closeFn := func() {
				if cerr := lr.Close(); cerr != nil {
					log.Warn("ошибка закрытия webdriver", zap.Error(cerr))
				}
			}
			return lr, nil, closeFn, nil
		}
		log.Warn("webdriver недоступен, используется браузер", zap.Error(err))
		r.res.warn("webdriver unavailable: %v", err)
	}

	if r.browser != nil {
		if !src.Rendered {
			if err := r.browser.Navigate(ctx, r.req.Input); err != nil {
				return nil, nil, noop, fmt.Errorf("open page for validation: %w", err)
			}
		}
		return r.browser, r.session, noop, nil
	}

	static, err := validate.NewStaticResolver(src.Markup)
	if err != nil {
		return nil, nil, noop, err
	}
	r.res.warn("live browser unavailable, validated against fetched markup")
	return static, nil, noop, nil
}

func (s *Scanner) enrich(ctx context.Context, r *run, doc *dom.Document, markup string, cands []*locator.Candidate, log *zap.Logger) *export.AIEnrichment {
	if s.opts.Enricher == nil {
		r.res.warn("AI enrichment requested but no API key configured")
		return nil
	}
	ctx = llm.WithRunID(ctx, r.res.RunID)

	ai := &export.AIEnrichment{}
	suggestions, err := s.opts.Enricher.EnrichWeak(ctx, doc, cands)
	if err != nil {
		log.Warn("обогащение завершилось с ошибками", zap.Error(err))
		r.res.warn("AI enrichment: %v", err)
	}
	ai.Suggestions = suggestions

	page, err := s.opts.Enricher.AnalyzePage(ctx, markup, cands)
	if err != nil {
		r.res.warn("AI page analysis: %v", err)
	}
	ai.Page = page

	if len(ai.Suggestions) == 0 && ai.Page == nil {
		return nil
	}
	return ai
}

func (s *Scanner) createRun(ctx context.Context, r *run, log *zap.Logger) {
	if r.store == nil {
		return
	}
	err := r.store.CreateRun(ctx, &database.ScanRun{
		ID:           r.res.RunID,
		Source:       r.res.Source,
		SourceKind:   r.res.SourceKind,
		Status:       database.StatusRunning,
		ClassName:    r.req.ClassName,
		Frameworks:   joinFrameworks(r.req.Frameworks),
		MinStability: string(r.req.MinStability),
	})
	if err != nil {
		log.Warn("не удалось сохранить запуск, результаты не будут записаны в БД", zap.Error(err))
		r.res.warn("persistence disabled: %v", err)
		r.store = nil
	}
}

func (s *Scanner) saveRun(ctx context.Context, r *run, report *export.Report, log *zap.Logger) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveLocators(ctx, r.res.RunID, report.Locators); err != nil {
		log.Warn("не удалось сохранить локаторы", zap.Error(err))
		r.res.warn("save locators: %v", err)
	}
	summary, _ := json.Marshal(report.Summary)
	s.finishRun(ctx, r, log, database.RunResult{
		Status:        database.StatusCompleted,
		TotalElements: report.Metadata.TotalElements,
		TotalLocators: report.Metadata.TotalLocators,
		Validated:     report.Metadata.Validated,
		AuthState:     r.res.AuthState,
		Summary:       string(summary),
		Error:         strings.Join(r.res.Warnings, "\n"),
	})
}

func (s *Scanner) finishRun(ctx context.Context, r *run, log *zap.Logger, rr database.RunResult) {
	if r.store == nil {
		return
	}
	if err := r.store.FinishRun(ctx, r.res.RunID, rr); err != nil {
		log.Warn("не удалось завершить запуск в БД", zap.Error(err))
	}
}

func joinFrameworks(fws []locator.Framework) string {
	parts := make([]string, len(fws))
	for i, f := range fws {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
