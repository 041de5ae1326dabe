package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/cli/ui"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/database"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"

	"go.uber.org/zap"
)

type RunStore interface {
	GetRun(ctx context.Context, id string) (*database.ScanRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]database.ScanRun, error)
	GetLocators(ctx context.Context, runID string) ([]database.LocatorRecord, error)
}

// RunsHandler показывает историю запусков
type RunsHandler struct {
	repo RunStore
	out  io.Writer
	log  *zap.Logger
}

func NewRunsHandler(repo RunStore, out io.Writer, log *zap.Logger) *RunsHandler {
	return &RunsHandler{
		repo: repo,
		out:  out,
		log:  log,
	}
}

// List выводит последние запуски
func (h *RunsHandler) List(ctx context.Context) {
	if h.repo == nil {
		ui.Errorf(h.out, "База данных не подключена")
		return
	}
	runs, err := h.repo.ListRuns(ctx, 20, 0)
	if err != nil {
		h.log.Error("Ошибка чтения запусков", zap.Error(err))
		ui.Errorf(h.out, "Ошибка чтения запусков")
		return
	}
	if len(runs) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Запусков пока нет"+ui.ColorReset)
		return
	}
	fmt.Fprintln(h.out, "\n"+ui.ColorBold+ui.IconList+" Запуски:"+ui.ColorReset)
	fmt.Fprintln(h.out)
	for _, r := range runs {
		icon, color, text := ui.FormatStatus(r.Status)
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"%s"+ui.ColorReset+" %s%s %s"+ui.ColorReset+"  %d локаторов\n", r.ID, color, icon, text, r.TotalLocators)
		fmt.Fprintf(h.out, "  "+ui.ColorGray+"└─"+ui.ColorReset+" %s "+ui.ColorGray+"%s"+ui.ColorReset+"\n", preview(r.Source), r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(h.out)
}

// Show выводит запуск со всеми локаторами
func (h *RunsHandler) Show(ctx context.Context, id string) {
	if h.repo == nil {
		ui.Errorf(h.out, "База данных не подключена")
		return
	}
	id = strings.TrimSpace(id)
	run, err := h.repo.GetRun(ctx, id)
	if errors.Is(err, database.ErrRunNotFound) {
		ui.Errorf(h.out, "Запуск не найден")
		return
	}
	if err != nil {
		h.log.Error("Ошибка чтения запуска", zap.Error(err))
		ui.Errorf(h.out, "Ошибка чтения запуска")
		return
	}

	_, _, statusText := ui.FormatStatus(run.Status)
	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== Запуск %s ==="+ui.ColorReset+"\n", run.ID)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconDocument+" Источник:"+ui.ColorReset+" %s\n", preview(run.Source))
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconChart+" Статус:"+ui.ColorReset+" %s\n", statusText)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconTime+" Создан:"+ui.ColorReset+" %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.Error != "" {
		fmt.Fprintf(h.out, ui.ColorRed+" Ошибка:"+ui.ColorReset+" %s\n", run.Error)
	}

	rows, err := h.repo.GetLocators(ctx, run.ID)
	if err != nil {
		h.log.Error("Ошибка чтения локаторов", zap.Error(err))
		ui.Errorf(h.out, "Ошибка чтения локаторов")
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(h.out, "\n"+ui.ColorGray+"Локаторы не найдены"+ui.ColorReset)
		return
	}
	fmt.Fprintf(h.out, "\n"+ui.ColorYellow+ui.IconList+" Локаторы (%d):"+ui.ColorReset+"\n", len(rows))
	for _, row := range rows {
		color := ui.StabilityColor(locator.Label(row.Stability))
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"%-24s"+ui.ColorReset+" %-13s %s%-6s %2d"+ui.ColorReset+"  %s\n",
			row.CustomName, row.LocatorType, color, row.Stability, row.StabilityScore, row.LocatorValue)
		if row.Warnings != "" {
			for _, w := range strings.Split(row.Warnings, "\n") {
				fmt.Fprintf(h.out, "    "+ui.ColorGray+"%s"+ui.ColorReset+"\n", w)
			}
		}
	}
	fmt.Fprintln(h.out)
}
