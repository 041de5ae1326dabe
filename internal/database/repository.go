package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/export"
)

var ErrRunNotFound = errors.New("scan run not found")

const saveBatchSize = 200

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateRun(ctx context.Context, run *ScanRun) error {
	if run.Status == "" {
		run.Status = StatusRunning
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// SaveLocators пишет локаторы запуска пачками в одной транзакции.
func (r *Repository) SaveLocators(ctx context.Context, runID string, recs []export.Record) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]LocatorRecord, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, NewLocatorRecord(runID, rec))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, saveBatchSize).Error
	})
}

// RunResult - итог запуска для FinishRun.
type RunResult struct {
	Status        string
	TotalElements int
	TotalLocators int
	Validated     bool
	AuthState     string
	Summary       string
	Error         string
}

func (r *Repository) FinishRun(ctx context.Context, runID string, res RunResult) error {
	now := time.Now()
	tx := r.db.WithContext(ctx).Model(&ScanRun{}).
		Where("id = ?", runID).
		Updates(map[string]any{
			"status":         res.Status,
			"total_elements": res.TotalElements,
			"total_locators": res.TotalLocators,
			"validated":      res.Validated,
			"auth_state":     res.AuthState,
			"summary":        res.Summary,
			"error":          res.Error,
			"finished_at":    &now,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (r *Repository) GetRun(ctx context.Context, id string) (*ScanRun, error) {
	var run ScanRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Repository) ListRuns(ctx context.Context, limit, offset int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []ScanRun
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *Repository) GetLocators(ctx context.Context, runID string) ([]LocatorRecord, error) {
	var recs []LocatorRecord
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// LogLLMRequest сохраняет запрос к LLM; реализует llm.Logger.
func (r *Repository) LogLLMRequest(ctx context.Context, runID *string, role, promptText, responseText, model string, tokensUsed int) error {
	return r.db.WithContext(ctx).Create(&LlmLog{
		RunID:        runID,
		Role:         role,
		PromptText:   promptText,
		ResponseText: responseText,
		Model:        model,
		TokensUsed:   tokensUsed,
	}).Error
}
