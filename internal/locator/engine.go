package locator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Engine struct {
	cfg Config
	log *logger.Zap
}

// NewEngine создает движок генерации. Если Workers не задан, используется GOMAXPROCS.
func NewEngine(cfg Config, log *logger.Zap) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Scope == "" {
		cfg.Scope = ScopeAll
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{cfg: cfg, log: log}
}

func (e *Engine) Config() Config { return e.cfg }

// Run: сначала полный частотный проход (барьер), затем параллельно по
// элементам generate -> detect -> score. Результаты пишутся по индексу
// элемента, поэтому порядок вывода детерминирован.
func (e *Engine) Run(ctx context.Context, doc *dom.Document) ([]*Candidate, error) {
	start := time.Now()
	freq := BuildFrequency(doc, e.cfg)

	n := doc.Len()
	perElement := make([][]*Candidate, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := 0; i < n; i++ {
		if !e.inScope(doc.Element(i)) {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cands := Generate(doc, freq, e.cfg, i)
			if len(cands) == 0 {
				el := doc.Element(i)
				return &StageError{
					Stage: "generate",
					Input: fmt.Sprintf("element #%d <%s>", i, el.Tag),
					Err:   ErrGeneration,
				}
			}
			for _, c := range cands {
				Detect(c, freq)
				Score(c)
			}
			perElement[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := newNamer()
	var out []*Candidate
	for i, cands := range perElement {
		if len(cands) == 0 {
			continue
		}
		name := names.unique(CustomName(doc.Element(i)))
		for _, c := range cands {
			c.CustomName = name
		}
		out = append(out, cands...)
	}

	e.log.Debug("Кандидаты сгенерированы",
		zap.Int("elements", n),
		zap.Int("keys", freq.Len()),
		zap.Int("candidates", len(out)),
		zap.Duration("elapsed", time.Since(start)))

	return out, nil
}

func (e *Engine) inScope(el dom.Element) bool {
	if e.cfg.Scope != ScopeInteractive {
		return true
	}
	return IsInteractive(el)
}

// IsInteractive - элемент, с которым обычно взаимодействует тест.
func IsInteractive(el dom.Element) bool {
	switch el.Tag {
	case "button", "select", "textarea", "option", "summary":
		return true
	case "a":
		_, ok := el.Attr("href")
		return ok
	case "input":
		return el.AttrValue("type") != "hidden"
	}
	for _, a := range []string{"role", "onclick", "tabindex", "contenteditable"} {
		if _, ok := el.Attr(a); ok {
			return true
		}
	}
	return false
}
