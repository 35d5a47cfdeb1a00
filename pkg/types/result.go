package types

import (
	"time"

	"github.com/google/uuid"
)

type CheckStatus string

const (
	StatusPassed CheckStatus = "PASSED"
	StatusFailed CheckStatus = "FAILED"
)

// CheckResult is the outcome of one expectation evaluated against one dataset.
// It is fully populated by the check runner and not modified afterwards.
type CheckResult struct {
	DatabaseName  string
	TableName     string
	CheckName     string
	Status        CheckStatus
	TotalRows     int64
	FailedRows    int64
	FailureReason string
}

func (r CheckResult) Passed() bool {
	return r.Status == StatusPassed
}

// CheckBatch holds the results of one runner invocation in declaration order.
type CheckBatch []CheckResult

func (b CheckBatch) AllPassed() bool {
	for _, r := range b {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// RunContext carries values that stay constant for a whole suite run.
type RunContext struct {
	DeploymentID string `yaml:"deployment_id"`
	Environment  string `yaml:"environment"`
	TriggeredBy  string `yaml:"triggered_by"`
}

// PersistedRecord is a CheckResult enriched with run metadata at sink time.
// Field order matches the results table column order.
type PersistedRecord struct {
	CheckID        uuid.UUID `json:"check_id"`
	RunTimestamp   time.Time `json:"run_timestamp"`
	DeploymentID   string    `json:"deployment_id"`
	DatabaseName   string    `json:"database_name"`
	TableName      string    `json:"table_name"`
	CheckName      string    `json:"check_name"`
	Status         string    `json:"status"`
	TotalRows      int64     `json:"total_rows"`
	FailedRows     int64     `json:"failed_rows"`
	SuccessPercent float64   `json:"success_percent"`
	FailureReason  string    `json:"failure_reason"`
	Environment    string    `json:"environment"`
	TriggeredBy    string    `json:"triggered_by"`
}

// ResultColumns lists the results table columns in their canonical order.
var ResultColumns = []string{
	"check_id", "run_timestamp", "deployment_id",
	"database_name", "table_name", "check_name",
	"status", "total_rows", "failed_rows",
	"success_percent", "failure_reason",
	"environment", "triggered_by",
}
