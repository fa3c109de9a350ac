package db

import (
	"time"
)

// Task statuses. A task is created as StatusOpen; every later change
// is caller-driven (API update, run start, or agent result write-back).
const (
	StatusOpen     = "open"
	StatusProgress = "progress"
	StatusFixed    = "fixed"
	StatusFailed   = "failed"
)

// ValidStatus reports whether s is one of the four task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusProgress, StatusFixed, StatusFailed:
		return true
	}
	return false
}

// ValidTransition reports whether a status update from "from" to "to"
// is allowed. Re-applying the current status is an idempotent no-op.
// "progress" is re-enterable from every state (re-runs); terminal
// outcomes are only reachable from "progress". "open" is creation-only.
func ValidTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch to {
	case StatusProgress:
		return true
	case StatusFixed, StatusFailed:
		return from == StatusProgress
	}
	return false
}

// HistoryItem is one entry in a task's append-only audit trail.
type HistoryItem struct {
	Date   string `json:"date"`
	Action string `json:"action"`
	User   string `json:"user"`
}

// Task represents a tracked unit of bug/feature work. IDs are assigned
// by the client, not the database. CodexURL and Prompt are set together
// by a single launch-preparation write, never one without the other.
type Task struct {
	ID          string        `json:"id" gorm:"primaryKey"`
	TaskName    string        `json:"task_name"`
	Explanation string        `json:"explanation"`
	CodeBefore  string        `json:"code_before"`
	CodeAfter   *string       `json:"code_after,omitempty"`
	TestOutput  string        `json:"test_output"`
	Status      string        `json:"status" gorm:"index"`
	History     []HistoryItem `json:"history" gorm:"serializer:json"`
	GithubLink  *string       `json:"github_link,omitempty"`
	CodexURL    *string       `json:"codex_url,omitempty"`
	Prompt      *string       `json:"prompt,omitempty"`
	CreatedAt   time.Time     `json:"created_at" gorm:"<-:create"`
}

// Template is a reusable parametrized prompt body. Content may reference
// task fields with {{task.<field>}} placeholders; the reference is by
// value at render time, so editing or deleting a template never touches
// previously rendered tasks.
type Template struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Tag         string    `json:"tag" gorm:"index"`
	CreatedAt   time.Time `json:"created_at" gorm:"<-:create"`
}

// TestRun is one recorded test-suite execution. JSON field names keep
// the camelCase wire format the analytics frontend expects.
type TestRun struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	Module      string  `json:"module" gorm:"index"`
	Date        string  `json:"date"`
	TotalTests  int     `json:"totalTests"`
	PassedTests int     `json:"passedTests"`
	FailedTests int     `json:"failedTests"`
	Duration    int     `json:"duration"` // minutes
	Coverage    float64 `json:"coverage"` // percentage
	TestRunType string  `json:"testRunType"`
}

// Bug is a recorded defect used by the analytics aggregates.
type Bug struct {
	ID               string  `json:"id" gorm:"primaryKey"`
	Module           string  `json:"module" gorm:"index"`
	DetectedDate     string  `json:"detectedDate"`
	Severity         string  `json:"severity"`
	Status           string  `json:"status" gorm:"index"`
	DetectionMethod  string  `json:"detectionMethod"`
	FixedDate        *string `json:"fixedDate,omitempty"`
	TestPassAfterFix *bool   `json:"testPassAfterFix,omitempty"`
	Description      string  `json:"description"`
}

// ModuleCoverage is a per-module coverage sample, keyed by module+date.
type ModuleCoverage struct {
	Module           string  `json:"module" gorm:"primaryKey"`
	Date             string  `json:"date" gorm:"primaryKey"`
	LineCoverage     float64 `json:"lineCoverage"`
	BranchCoverage   float64 `json:"branchCoverage"`
	FunctionCoverage float64 `json:"functionCoverage"`
}

// Analytics is the aggregated summary computed from the collections
// above. It is derived, never stored directly (see AnalyticsSnapshot).
type Analytics struct {
	TotalTestRuns   int     `json:"totalTestRuns"`
	TestPassRate    float64 `json:"testPassRate"`
	BugsDetected    int     `json:"bugsDetected"`
	BugsFixed       int     `json:"bugsFixed"`
	FixSuccessRate  float64 `json:"fixSuccessRate"`
	AverageCoverage float64 `json:"averageCoverage"`
}

// AnalyticsSnapshot is a point-in-time copy of the summary, written by
// the periodic snapshot job.
type AnalyticsSnapshot struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TakenAt         time.Time `json:"taken_at" gorm:"index"`
	TotalTestRuns   int       `json:"totalTestRuns"`
	TestPassRate    float64   `json:"testPassRate"`
	BugsDetected    int       `json:"bugsDetected"`
	BugsFixed       int       `json:"bugsFixed"`
	FixSuccessRate  float64   `json:"fixSuccessRate"`
	AverageCoverage float64   `json:"averageCoverage"`
}
