package services

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"byebug-backend/internal/byebug-api/db"
	"byebug-backend/internal/byebug-api/events"
	"byebug-backend/internal/byebug-api/store"
)

func setupServiceDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dbFilePath := "test_services_" + name + "_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".db"

	gormDB, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database '%s': %v", dbFilePath, err)
	}
	if err := gormDB.AutoMigrate(&db.Task{}, &db.TestRun{}, &db.Bug{}, &db.ModuleCoverage{}, &db.AnalyticsSnapshot{}); err != nil {
		t.Fatalf("Failed to migrate test database '%s': %v", dbFilePath, err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			t.Logf("Warning: could not remove test DB file '%s': %v", dbFilePath, err)
		}
	})
	return gormDB
}

func runResult(t *testing.T, taskID, status, detail string) []byte {
	t.Helper()
	payload := events.CodexRunResultPayload{TaskID: taskID, RunID: "run-1", Status: status, Detail: detail}
	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	return raw
}

func TestResultServiceAppliesOutcome(t *testing.T) {
	tasks := store.NewTaskStore(setupServiceDB(t, "apply"))
	ctx := context.Background()
	assert.NoError(t, tasks.Create(ctx, &db.Task{ID: "t1", TaskName: "n", Status: db.StatusProgress}))

	svc := &ResultService{Tasks: tasks}
	svc.Apply(ctx, runResult(t, "t1", db.StatusFixed, "all tests pass"))

	got, err := tasks.Get(ctx, "t1")
	assert.NoError(t, err)
	assert.Equal(t, db.StatusFixed, got.Status)
	if assert.Len(t, got.History, 1) {
		assert.Equal(t, "codex run fixed: all tests pass", got.History[0].Action)
		assert.Equal(t, "codex-agent", got.History[0].User)
		assert.NotEmpty(t, got.History[0].Date)
	}
}

func TestResultServiceRejectsIllegalTransition(t *testing.T) {
	tasks := store.NewTaskStore(setupServiceDB(t, "illegal"))
	ctx := context.Background()
	assert.NoError(t, tasks.Create(ctx, &db.Task{ID: "t1", TaskName: "n"})) // still open, no run started

	svc := &ResultService{Tasks: tasks}
	svc.Apply(ctx, runResult(t, "t1", db.StatusFixed, ""))

	got, _ := tasks.Get(ctx, "t1")
	assert.Equal(t, db.StatusOpen, got.Status, "open task cannot jump to fixed")
	assert.Empty(t, got.History)
}

func TestResultServiceIgnoresUnknownStatusAndTask(t *testing.T) {
	tasks := store.NewTaskStore(setupServiceDB(t, "ignore"))
	ctx := context.Background()
	assert.NoError(t, tasks.Create(ctx, &db.Task{ID: "t1", TaskName: "n", Status: db.StatusProgress}))

	svc := &ResultService{Tasks: tasks}
	svc.Apply(ctx, runResult(t, "t1", "completed", "")) // not a task status
	svc.Apply(ctx, runResult(t, "ghost", db.StatusFailed, ""))
	svc.Apply(ctx, []byte("not json"))

	got, _ := tasks.Get(ctx, "t1")
	assert.Equal(t, db.StatusProgress, got.Status)
	assert.Empty(t, got.History)
}

func TestResultServiceFailureOutcome(t *testing.T) {
	tasks := store.NewTaskStore(setupServiceDB(t, "failure"))
	ctx := context.Background()
	assert.NoError(t, tasks.Create(ctx, &db.Task{ID: "t1", TaskName: "n", Status: db.StatusProgress}))

	svc := &ResultService{Tasks: tasks}
	svc.Apply(ctx, runResult(t, "t1", db.StatusFailed, "automation run timed out"))

	got, _ := tasks.Get(ctx, "t1")
	assert.Equal(t, db.StatusFailed, got.Status)
	if assert.Len(t, got.History, 1) {
		assert.Equal(t, "codex run failed: automation run timed out", got.History[0].Action)
	}
}

func TestSnapshotServiceTakeSnapshot(t *testing.T) {
	analytics := store.NewAnalyticsStore(setupServiceDB(t, "snapshot"))
	ctx := context.Background()

	assert.NoError(t, analytics.CreateTestRun(ctx, &db.TestRun{
		ID: "r1", Module: "auth", Date: "2025-03-01", TotalTests: 4, PassedTests: 2, TestRunType: "unit",
	}))

	svc, err := NewSnapshotService(ctx, analytics)
	assert.NoError(t, err)
	svc.Start()
	defer svc.Stop()

	svc.TakeSnapshot()
	svc.TakeSnapshot()

	snaps, err := analytics.ListSnapshots(ctx)
	assert.NoError(t, err)
	if assert.Len(t, snaps, 2) {
		assert.Equal(t, 1, snaps[0].TotalTestRuns)
		assert.InDelta(t, 50.0, snaps[0].TestPassRate, 1e-9)
	}
}
