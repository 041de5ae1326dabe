// Package cli - интерактивная консоль поверх сканера.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/cli/commands"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/cli/ui"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"

	"github.com/chzyer/readline"
)

type CLI struct {
	log         *logger.Zap
	rl          *readline.Instance
	in          *bufio.Reader
	out         io.Writer
	persistent  bool
	ai          bool
	scanHandler *commands.ScanHandler
	runsHandler *commands.RunsHandler
}

// New создаёт консоль. repo может быть nil: тогда runs и show недоступны.
func New(sc commands.Scanner, repo commands.RunStore, settings *commands.Settings, ai bool, log *logger.Zap) *CLI {
	c := &CLI{
		log:        log,
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		persistent: repo != nil,
		ai:         ai,
	}
	c.setHandlers(sc, repo, settings)
	return c
}

func (c *CLI) setHandlers(sc commands.Scanner, repo commands.RunStore, settings *commands.Settings) {
	c.scanHandler = commands.NewScanHandler(sc, settings, c.out, c.log.Logger)
	c.runsHandler = commands.NewRunsHandler(repo, c.out, c.log.Logger)
}

func (c *CLI) readLine() (string, error) {
	if c.rl != nil {
		return c.rl.Readline()
	}
	// Fallback для работы без readline
	fmt.Fprint(c.out, ui.ColorCyan+"> "+ui.ColorReset)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *CLI) Run(ctx context.Context) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     ".smart-locator-history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		c.log.Warn("Не удалось инициализировать readline, будет использован fallback режим")
	} else {
		c.rl = rl
		defer rl.Close()
	}

	ui.PrintWelcome(c.out, c.persistent, c.ai)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\n"+ui.ColorCyan+ui.IconWave+" Получен сигнал завершения..."+ui.ColorReset)
			return
		default:
		}

		line, err := c.readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return
		} else if err != nil {
			c.log.Warn("Ошибка чтения ввода")
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !c.handleCommand(ctx, line) {
			return
		}
	}
}

// handleCommand выполняет команду; false - пора выходить.
func (c *CLI) handleCommand(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "exit", "quit":
		fmt.Fprintln(c.out, ui.ColorCyan+ui.IconWave+" До свидания!"+ui.ColorReset)
		return false

	case "clear":
		ui.ClearScreen(c.out)

	case "scan":
		c.scanHandler.Scan(ctx, arg)

	case "min", "fw", "js", "validate", "ai", "out", "class":
		c.scanHandler.Set(cmd, arg)

	case "settings":
		c.scanHandler.Show()

	case "runs":
		c.runsHandler.List(ctx)

	case "show":
		c.runsHandler.Show(ctx, arg)

	default:
		ui.PrintHelp(c.out)
	}
	return true
}
