package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"byebug-backend/internal/byebug-api/db"
)

// TaskStore owns all task persistence. It is constructed once at
// startup and injected; there is no package-level handle.
type TaskStore struct {
	DB *gorm.DB
}

func NewTaskStore(gormDB *gorm.DB) *TaskStore {
	return &TaskStore{DB: gormDB}
}

// TaskPatch carries a partial update. Only non-nil fields are applied;
// nil means "leave unchanged", never "clear". History, when supplied,
// replaces the stored sequence wholesale (the caller owns ordering).
type TaskPatch struct {
	TaskName    *string           `json:"task_name"`
	Explanation *string           `json:"explanation"`
	CodeBefore  *string           `json:"code_before"`
	CodeAfter   *string           `json:"code_after"`
	TestOutput  *string           `json:"test_output"`
	Status      *string           `json:"status"`
	History     *[]db.HistoryItem `json:"history"`
	GithubLink  *string           `json:"github_link"`
	CodexURL    *string           `json:"codex_url"`
	Prompt      *string           `json:"prompt"`
}

// Create inserts a new task. The id is client-assigned; a duplicate id
// fails with ErrConflict. Status defaults to open. The duplicate check
// is read-then-insert; the race is accepted (last writer wins policy).
func (s *TaskStore) Create(ctx context.Context, task *db.Task) error {
	if task.Status == "" {
		task.Status = db.StatusOpen
	}
	if !db.ValidStatus(task.Status) {
		return fmt.Errorf("task %q: unknown status %q", task.ID, task.Status)
	}
	if task.History == nil {
		task.History = []db.HistoryItem{}
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&db.Task{}).Where("id = ?", task.ID).Count(&count).Error; err != nil {
		return wrapDBErr(err, "task", task.ID)
	}
	if count > 0 {
		return fmt.Errorf("task %q: %w", task.ID, ErrConflict)
	}
	if err := s.DB.WithContext(ctx).Create(task).Error; err != nil {
		return wrapDBErr(err, "task", task.ID)
	}
	return nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (*db.Task, error) {
	var task db.Task
	if err := s.DB.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, wrapDBErr(err, "task", id)
	}
	return &task, nil
}

// List returns all tasks, optionally filtered by status. Order is by
// primary key, which is stable across calls.
func (s *TaskStore) List(ctx context.Context, status string) ([]db.Task, error) {
	tasks := []db.Task{}
	query := s.DB.WithContext(ctx).Model(&db.Task{}).Order("id")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, wrapDBErr(err, "task", "*")
	}
	return tasks, nil
}

// Update applies a partial update and returns the stored task. A status
// change goes through the state machine; an illegal jump fails with
// ErrInvalidTransition and nothing is written.
func (s *TaskStore) Update(ctx context.Context, id string, patch TaskPatch) (*db.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.TaskName != nil {
		updates["task_name"] = *patch.TaskName
	}
	if patch.Explanation != nil {
		updates["explanation"] = *patch.Explanation
	}
	if patch.CodeBefore != nil {
		updates["code_before"] = *patch.CodeBefore
	}
	if patch.CodeAfter != nil {
		updates["code_after"] = *patch.CodeAfter
	}
	if patch.TestOutput != nil {
		updates["test_output"] = *patch.TestOutput
	}
	if patch.Status != nil {
		if !db.ValidStatus(*patch.Status) {
			return nil, fmt.Errorf("task %q: unknown status %q", id, *patch.Status)
		}
		if !db.ValidTransition(task.Status, *patch.Status) {
			return nil, fmt.Errorf("task %q: %s -> %s: %w", id, task.Status, *patch.Status, ErrInvalidTransition)
		}
		updates["status"] = *patch.Status
	}
	if patch.History != nil {
		task.History = *patch.History
		raw, err := encodeHistory(task.History)
		if err != nil {
			return nil, fmt.Errorf("task %q: %v", id, err)
		}
		updates["history"] = raw
	}
	if patch.GithubLink != nil {
		updates["github_link"] = *patch.GithubLink
	}
	if patch.CodexURL != nil {
		updates["codex_url"] = *patch.CodexURL
	}
	if patch.Prompt != nil {
		updates["prompt"] = *patch.Prompt
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := s.DB.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return nil, wrapDBErr(err, "task", id)
	}
	return s.Get(ctx, id)
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	result := s.DB.WithContext(ctx).Delete(&db.Task{}, "id = ?", id)
	if result.Error != nil {
		return wrapDBErr(result.Error, "task", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return nil
}

// SetLaunchArtifact persists the rendered prompt and its launch URL as
// one write, so a reader never observes only one of the pair.
func (s *TaskStore) SetLaunchArtifact(ctx context.Context, id, prompt, codexURL string) error {
	result := s.DB.WithContext(ctx).Model(&db.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
		"prompt":    prompt,
		"codex_url": codexURL,
	})
	if result.Error != nil {
		return wrapDBErr(result.Error, "task", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return nil
}

// SetStatus moves the task through the state machine.
func (s *TaskStore) SetStatus(ctx context.Context, id, status string) (*db.Task, error) {
	return s.Update(ctx, id, TaskPatch{Status: &status})
}

// AppendHistory adds one audit entry, stamping the date when empty.
func (s *TaskStore) AppendHistory(ctx context.Context, id string, item db.HistoryItem) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Date == "" {
		item.Date = time.Now().UTC().Format(time.RFC3339)
	}
	task.History = append(task.History, item)
	raw, err := encodeHistory(task.History)
	if err != nil {
		return fmt.Errorf("task %q: %v", id, err)
	}
	if err := s.DB.WithContext(ctx).Model(task).Update("history", raw).Error; err != nil {
		return wrapDBErr(err, "task", id)
	}
	return nil
}

// encodeHistory marshals the history sequence into the JSON text the
// column actually stores. Map- and column-based gorm updates hand the
// value straight to the driver, skipping the model's json serializer,
// so raw writes must carry the serialized form themselves.
func encodeHistory(items []db.HistoryItem) (string, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding history: %v", err)
	}
	return string(raw), nil
}

// IsNotFound is a convenience for handlers that branch on lookups.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
