// Package database хранит запуски сканирования, найденные локаторы и журнал
// запросов к LLM в PostgreSQL через GORM.
package database

import (
	"strings"
	"time"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/export"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ScanRun - один запуск сканирования.
// Статусы: running, completed, failed.
type ScanRun struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Source        string     `gorm:"type:text;not null" json:"source"`
	SourceKind    string     `gorm:"type:varchar(16);not null" json:"source_kind"`
	Status        string     `gorm:"type:varchar(32);not null;default:'running'" json:"status"`
	ClassName     string     `gorm:"type:varchar(128)" json:"class_name"`
	Frameworks    string     `gorm:"type:varchar(64)" json:"frameworks"`
	MinStability  string     `gorm:"type:varchar(16)" json:"min_stability"`
	TotalElements int        `json:"total_elements"`
	TotalLocators int        `json:"total_locators"`
	Validated     bool       `json:"validated"`
	AuthState     string     `gorm:"type:varchar(32)" json:"auth_state,omitempty"`
	Summary       string     `gorm:"type:text" json:"summary,omitempty"` // JSON сводки
	Error         string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// LocatorRecord - локатор, сохранённый для запуска.
type LocatorRecord struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	RunID           string    `gorm:"type:varchar(36);index;not null" json:"run_id"`
	ElementIndex    int       `gorm:"not null" json:"element_index"`
	Tag             string    `gorm:"type:varchar(64)" json:"tag"`
	CustomName      string    `gorm:"type:varchar(128)" json:"custom_name"`
	LocatorType     string    `gorm:"type:varchar(32);not null" json:"locator_type"`
	LocatorValue    string    `gorm:"type:text;not null" json:"locator_value"`
	Strategy        string    `gorm:"type:varchar(32)" json:"strategy"`
	Stability       string    `gorm:"type:varchar(16)" json:"stability"`
	StabilityScore  int       `json:"stability_score"`
	AutomationTool  string    `gorm:"type:varchar(16)" json:"automation_tool"`
	Dynamic         bool      `json:"dynamic"`
	Duplicate       bool      `json:"duplicate"`
	Validated       *bool     `json:"validated,omitempty"`
	MatchCount      *int      `json:"match_count,omitempty"`
	ValidationError *string   `gorm:"type:text" json:"validation_error,omitempty"`
	Warnings        string    `gorm:"type:text" json:"warnings,omitempty"` // через "\n"
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"-"`
}

// LlmLog - запрос к LLM и ответ на него.
type LlmLog struct {
	ID           uint      `gorm:"primaryKey"`
	RunID        *string   `gorm:"type:varchar(36);index"`
	Role         string    `gorm:"type:varchar(16);not null"`
	PromptText   string    `gorm:"type:text;not null"`
	ResponseText string    `gorm:"type:text"`
	Model        string    `gorm:"type:varchar(64)"`
	TokensUsed   int
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func NewLocatorRecord(runID string, r export.Record) LocatorRecord {
	return LocatorRecord{
		RunID:           runID,
		ElementIndex:    r.Element,
		Tag:             r.Tag,
		CustomName:      r.CustomName,
		LocatorType:     r.LocatorType,
		LocatorValue:    r.LocatorValue,
		Strategy:        r.Strategy,
		Stability:       string(r.Stability),
		StabilityScore:  r.StabilityScore,
		AutomationTool:  string(r.AutomationTool),
		Dynamic:         r.Dynamic,
		Duplicate:       r.Duplicate,
		Validated:       r.Validated,
		MatchCount:      r.MatchCount,
		ValidationError: r.ValidationError,
		Warnings:        strings.Join(r.Warnings, "\n"),
	}
}

// Record возвращает запись в формате отчёта.
func (l LocatorRecord) Record() export.Record {
	warnings := []string{}
	if l.Warnings != "" {
		warnings = strings.Split(l.Warnings, "\n")
	}
	return export.Record{
		Element:         l.ElementIndex,
		Tag:             l.Tag,
		CustomName:      l.CustomName,
		LocatorType:     l.LocatorType,
		LocatorValue:    l.LocatorValue,
		Strategy:        l.Strategy,
		Stability:       locator.Label(l.Stability),
		StabilityScore:  l.StabilityScore,
		AutomationTool:  locator.FrameworkTag(l.AutomationTool),
		Validated:       l.Validated,
		MatchCount:      l.MatchCount,
		ValidationError: l.ValidationError,
		Dynamic:         l.Dynamic,
		Duplicate:       l.Duplicate,
		Warnings:        warnings,
	}
}
