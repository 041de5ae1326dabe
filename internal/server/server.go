// Package server отдаёт сканирование и историю запусков по HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/config"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/database"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/export"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/scanner"
)

// RunStore - чтение истории запусков. Реализуется database.Repository.
type RunStore interface {
	GetRun(ctx context.Context, id string) (*database.ScanRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]database.ScanRun, error)
	GetLocators(ctx context.Context, runID string) ([]database.LocatorRecord, error)
}

type Scanner interface {
	Scan(ctx context.Context, req scanner.Request) (*scanner.Result, error)
}

type Server struct {
	cfg     *config.Cfg
	log     *logger.Zap
	scanner Scanner
	runs    RunStore
	// scanTimeout ограничивает один POST /api/scan.
	scanTimeout time.Duration
	// guard проверяет адрес цели и каждый редирект; nil - проверка отключена
	// и разрешены локальные файлы.
	guard func(u *url.URL) error
}

// New: runs может быть nil, тогда эндпоинты истории отвечают 503.
func New(cfg *config.Cfg, log *logger.Zap, sc Scanner, runs RunStore) *Server {
	s := &Server{
		cfg:         cfg,
		log:         log,
		scanner:     sc,
		runs:        runs,
		scanTimeout: 5 * time.Minute,
	}
	if !cfg.App.AllowPrivateTargets {
		s.guard = checkURL
	}
	return s
}

type scanRequest struct {
	Input        string `json:"input" binding:"required"`
	Frameworks   string `json:"frameworks"`
	MinStability string `json:"min_stability"`
	ClassName    string `json:"class_name"`
	JS           bool   `json:"js"`
	Validate     bool   `json:"validate"`
	AI           bool   `json:"ai"`
}

func (r scanRequest) toScan() (scanner.Request, error) {
	fws, err := locator.ParseFrameworks(r.Frameworks)
	if err != nil {
		return scanner.Request{}, err
	}
	minLabel, err := locator.ParseLabel(r.MinStability)
	if err != nil {
		return scanner.Request{}, err
	}
	return scanner.Request{
		Input:        r.Input,
		Frameworks:   fws,
		MinStability: minLabel,
		ClassName:    r.ClassName,
		JS:           r.JS,
		Validate:     r.Validate,
		AI:           r.AI,
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("HTTP",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "persistence": s.runs != nil})
	})

	api := r.Group("/api")
	api.POST("/scan", s.handleScan)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	return r
}

func (s *Server) handleScan(c *gin.Context) {
	var body scanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := body.toScan()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.guard != nil {
		if err := checkTarget(req.Input, s.guard); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		req.CheckURL = s.guard
	} else {
		req.AllowFiles = true
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.scanTimeout)
	defer cancel()

	res, err := s.scanner.Scan(ctx, req)
	if err != nil {
		var stage *locator.StageError
		if errors.As(err, &stage) && (stage.Stage == "parse" || stage.Stage == "fetch") {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": stageMessage(stage), "stage": stage.Stage})
			return
		}
		s.log.Error("scan failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// stageMessage - текст ошибки для клиента. Ввод и фрагменты разметки
// в ответ не попадают, полная ошибка остаётся в логе сканера.
func stageMessage(stage *locator.StageError) string {
	var perr *dom.ParseError
	if errors.As(stage.Err, &perr) {
		return "parse: " + perr.Reason
	}
	return stage.Stage + ": " + stage.Err.Error()
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	runs, err := s.runs.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		s.log.Error("db list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}
	id := c.Param("id")
	run, err := s.runs.GetRun(c.Request.Context(), id)
	if errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		s.log.Error("db get run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	rows, err := s.runs.GetLocators(c.Request.Context(), id)
	if err != nil {
		s.log.Error("db get locators", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	recs := make([]export.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.Record())
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "locators": recs})
}

// Run слушает APP_HOST:APP_PORT до отмены ctx, затем корректно останавливается.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.App.Host, s.cfg.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Сервер запущен", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("Остановка сервера")
	return srv.Shutdown(shutdownCtx)
}
