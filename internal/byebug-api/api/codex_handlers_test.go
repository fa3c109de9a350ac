package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"

	"byebug-backend/internal/byebug-api/db"
)

func TestGenerateCodexURLAPI(t *testing.T) {
	router, _ := setupTestApp(t, "codex_url")
	performJSON(t, router, "POST", "/api/tasks", taskPayload("t1"))
	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))

	w := ut.PerformRequest(router, "GET", "/api/codex/url/t1?template_id=tpl1", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	var launch map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body(), &launch))
	assert.Equal(t, "Fix bug: null pointer on save", launch["prompt"])
	assert.Equal(t, "https://chat.openai.com/codex?prompt=Fix%20bug%3A%20null%20pointer%20on%20save", launch["codex_url"])

	// The pair must also be persisted on the task.
	w = ut.PerformRequest(router, "GET", "/api/tasks/t1", nil)
	var task db.Task
	assert.NoError(t, json.Unmarshal(w.Result().Body(), &task))
	if assert.NotNil(t, task.CodexURL) {
		assert.Equal(t, launch["codex_url"], *task.CodexURL)
	}
	if assert.NotNil(t, task.Prompt) {
		assert.Equal(t, launch["prompt"], *task.Prompt)
	}
}

func TestGenerateCodexURLAPI_CustomBase(t *testing.T) {
	router, _ := setupTestApp(t, "codex_base")
	performJSON(t, router, "POST", "/api/tasks", taskPayload("t1"))
	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))

	w := ut.PerformRequest(router, "GET", "/api/codex/url/t1?template_id=tpl1&base_url=https://codex.internal/launch", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	var launch map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body(), &launch))
	assert.Equal(t, "https://codex.internal/launch?prompt=Fix%20bug%3A%20null%20pointer%20on%20save", launch["codex_url"])
}

func TestGenerateCodexURLAPI_MissingTemplateID(t *testing.T) {
	router, _ := setupTestApp(t, "codex_no_tpl_param")
	performJSON(t, router, "POST", "/api/tasks", taskPayload("t1"))

	w := ut.PerformRequest(router, "GET", "/api/codex/url/t1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
}

func TestGenerateCodexURLAPI_UnknownPlaceholder(t *testing.T) {
	router, _ := setupTestApp(t, "codex_render_fail")
	performJSON(t, router, "POST", "/api/tasks", taskPayload("t1"))
	performJSON(t, router, "POST", "/api/templates", map[string]interface{}{
		"id":      "tpl1",
		"name":    "Broken",
		"content": "Assigned to {{task.owner}}",
	})

	w := ut.PerformRequest(router, "GET", "/api/codex/url/t1?template_id=tpl1", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode())
	var errorResponse map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body(), &errorResponse))
	assert.Contains(t, errorResponse["error"], "task.owner")

	// The failed render must not leave a partial artifact behind.
	w = ut.PerformRequest(router, "GET", "/api/tasks/t1", nil)
	var task db.Task
	assert.NoError(t, json.Unmarshal(w.Result().Body(), &task))
	assert.Nil(t, task.CodexURL)
	assert.Nil(t, task.Prompt)
}

func TestGenerateCodexURLAPI_TaskNotFound(t *testing.T) {
	router, _ := setupTestApp(t, "codex_404")
	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))

	w := ut.PerformRequest(router, "GET", "/api/codex/url/ghost?template_id=tpl1", nil)
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode())
}

func TestRunCodexAPI(t *testing.T) {
	router, _ := setupTestApp(t, "codex_run")
	performJSON(t, router, "POST", "/api/tasks", taskPayload("t1"))
	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))
	ut.PerformRequest(router, "GET", "/api/codex/url/t1?template_id=tpl1", nil)

	w := performJSON(t, router, "POST", "/api/tasks/t1/run-codex", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	var launch map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body(), &launch))
	assert.Equal(t, "Fix bug: null pointer on save", launch["prompt"])

	w = ut.PerformRequest(router, "GET", "/api/tasks/t1", nil)
	var task db.Task
	assert.NoError(t, json.Unmarshal(w.Result().Body(), &task))
	assert.Equal(t, db.StatusProgress, task.Status)
}

func TestRunCodexAPI_WithoutPreparedLaunch(t *testing.T) {
	router, _ := setupTestApp(t, "codex_run_unprepared")
	performJSON(t, router, "POST", "/api/tasks", taskPayload("t1"))

	w := performJSON(t, router, "POST", "/api/tasks/t1/run-codex", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	var errorResponse map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body(), &errorResponse))
	assert.Equal(t, "Task has no Codex URL", errorResponse["error"])

	// The failed precondition must not move the status.
	w = ut.PerformRequest(router, "GET", "/api/tasks/t1", nil)
	var task db.Task
	assert.NoError(t, json.Unmarshal(w.Result().Body(), &task))
	assert.Equal(t, db.StatusOpen, task.Status)
}
