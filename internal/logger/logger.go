// Package logger оборачивает zap для всего приложения.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Zap встраивает *zap.Logger, чтобы пакеты могли брать как обёртку, так и сам логгер.
type Zap struct {
	*zap.Logger
}

// New создаёт логгер: для env=dev - консольный вывод с цветными уровнями,
// иначе - JSON в production-конфигурации.
func New(env, level string) (*Zap, error) {
	var cfg zap.Config
	if strings.EqualFold(env, "dev") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("неизвестный уровень логирования %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Zap{Logger: l}, nil
}

// Nop возвращает логгер без вывода, удобен в тестах.
func Nop() *Zap {
	return &Zap{Logger: zap.NewNop()}
}
