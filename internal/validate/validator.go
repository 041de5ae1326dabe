// Package validate проверяет кандидатов на живом документе через
// внедрённый резолвер.
package validate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Resolver возвращает число элементов, которые адресует селектор.
type Resolver interface {
	Resolve(ctx context.Context, typ locator.Type, value string) (int, error)
}

type ResolverFunc func(ctx context.Context, typ locator.Type, value string) (int, error)

func (f ResolverFunc) Resolve(ctx context.Context, typ locator.Type, value string) (int, error) {
	return f(ctx, typ, value)
}

type Config struct {
	Workers int
	// Timeout ограничивает каждый вызов резолвера отдельно.
	Timeout time.Duration
}

// Stats - итог прогона валидации.
type Stats struct {
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

type Validator struct {
	resolver Resolver
	session  *Session
	cfg      Config
	log      *logger.Zap
}

// New создаёт валидатор. session может быть nil: тогда используется сессия без аутентификации.
func New(resolver Resolver, session *Session, cfg Config, log *logger.Zap) *Validator {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if session == nil {
		session = NewSession(nil, 0)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Validator{resolver: resolver, session: session, cfg: cfg, log: log}
}

func (v *Validator) Session() *Session { return v.session }

// Validate прогоняет кандидатов через резолвер с ограниченным параллелизмом.
// Ошибка одного кандидата пишется в его поля и не останавливает остальных.
// Возвращаемая ошибка - только *AuthError, ошибка автомата или отмена ctx;
// кандидаты, до которых очередь не дошла, остаются с пустыми полями валидации.
func (v *Validator) Validate(ctx context.Context, cands []*locator.Candidate) (Stats, error) {
	var stats Stats

	if v.session.State() == StateIdle {
		if err := v.session.Authenticate(ctx); err != nil {
			v.log.Error("Аутентификация не удалась, валидация пропущена", zap.Error(err))
			stats.Skipped = len(cands)
			return stats, err
		}
	}
	if err := v.session.BeginValidation(); err != nil {
		stats.Skipped = len(cands)
		return stats, err
	}

	var resolved, failed, skipped atomic.Int64

	var g errgroup.Group
	g.SetLimit(v.cfg.Workers)
	for _, c := range cands {
		c := c
		g.Go(func() error {
			if ctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			if v.validateOne(ctx, c) {
				resolved.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats = Stats{
		Resolved: int(resolved.Load()),
		Failed:   int(failed.Load()),
		Skipped:  int(skipped.Load()),
	}
	v.log.Info("Валидация завершена",
		zap.Int("resolved", stats.Resolved),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped))

	if err := ctx.Err(); err != nil {
		return stats, v.session.Fail(fmt.Errorf("validation cancelled: %w", err))
	}
	return stats, v.session.Finish()
}

// validateOne пишет только в своего кандидата, поэтому гонок между воркерами нет.
func (v *Validator) validateOne(ctx context.Context, c *locator.Candidate) bool {
	n, err := v.resolve(ctx, c.Type, c.Value)

	validated := true
	c.Validated = &validated

	if err != nil {
		rerr := Classify(c.Type, c.Value, err)
		msg := rerr.Error()
		c.ValidationError = &msg
		v.log.Debug("Селектор не прошёл валидацию",
			zap.String("selector", c.Value),
			zap.String("kind", rerr.Kind.String()),
			zap.Error(err))
		return false
	}

	c.MatchCount = &n
	switch {
	case n == 0:
		c.AddWarning("selector matched no elements")
	case n > 1:
		c.AddWarning(fmt.Sprintf("selector matched %d elements", n))
	}
	return true
}

// resolve ограничивает вызов таймаутом даже если резолвер игнорирует ctx.
func (v *Validator) resolve(ctx context.Context, typ locator.Type, value string) (int, error) {
	cctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := v.resolver.Resolve(cctx, typ, value)
		done <- result{n, err}
	}()

	select {
	case r := <-done:
		return r.n, r.err
	case <-cctx.Done():
		return 0, cctx.Err()
	}
}
