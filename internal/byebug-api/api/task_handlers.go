package api

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"byebug-backend/internal/byebug-api/db"
	"byebug-backend/internal/byebug-api/store"
)

type TaskHandler struct {
	Tasks *store.TaskStore
}

func NewTaskHandler(tasks *store.TaskStore) *TaskHandler {
	return &TaskHandler{Tasks: tasks}
}

// CreateTaskRequest is the create payload. The id is assigned by the
// caller. codex_url and prompt are deliberately absent: they only ever
// appear together, written by the launch-preparation step.
type CreateTaskRequest struct {
	ID          string           `json:"id" vd:"len($)>0"`
	TaskName    string           `json:"task_name" vd:"len($)>0"`
	Explanation string           `json:"explanation"`
	CodeBefore  string           `json:"code_before"`
	CodeAfter   *string          `json:"code_after"`
	TestOutput  string           `json:"test_output"`
	Status      string           `json:"status"`
	History     []db.HistoryItem `json:"history"`
	GithubLink  *string          `json:"github_link"`
}

func (h *TaskHandler) CreateTask(ctx context.Context, c *app.RequestContext) {
	var req CreateTaskRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if req.Status != "" && !db.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Unknown task status: " + req.Status})
		return
	}

	task := db.Task{
		ID:          req.ID,
		TaskName:    req.TaskName,
		Explanation: req.Explanation,
		CodeBefore:  req.CodeBefore,
		CodeAfter:   req.CodeAfter,
		TestOutput:  req.TestOutput,
		Status:      req.Status,
		History:     req.History,
		GithubLink:  req.GithubLink,
	}
	if err := h.Tasks.Create(ctx, &task); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTasks(ctx context.Context, c *app.RequestContext) {
	status := c.Query("status")
	if status != "" && !db.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Unknown task status: " + status})
		return
	}
	tasks, err := h.Tasks.List(ctx, status)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(ctx context.Context, c *app.RequestContext) {
	task, err := h.Tasks.Get(ctx, c.Param("id"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update: only fields present in the body
// change, everything else keeps its stored value.
func (h *TaskHandler) UpdateTask(ctx context.Context, c *app.RequestContext) {
	var patch store.TaskPatch
	if err := c.BindAndValidate(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if patch.Status != nil && !db.ValidStatus(*patch.Status) {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Unknown task status: " + *patch.Status})
		return
	}
	task, err := h.Tasks.Update(ctx, c.Param("id"), patch)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(ctx context.Context, c *app.RequestContext) {
	if err := h.Tasks.Delete(ctx, c.Param("id")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
