package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"

	"byebug-backend/internal/byebug-api/db"
)

func templatePayload(id, tag string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"name":        "Bug fix",
		"description": "Standard bug fix prompt",
		"content":     "Fix bug: {{task.explanation}}",
		"tag":         tag,
	}
}

func TestCreateTemplateAPI(t *testing.T) {
	router, _ := setupTestApp(t, "tmpl_create")

	w := performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))
	resp := w.Result()
	assert.Equal(t, http.StatusCreated, resp.StatusCode())

	var created db.Template
	assert.NoError(t, json.Unmarshal(resp.Body(), &created))
	assert.Equal(t, "tpl1", created.ID)
	assert.Equal(t, "Fix bug: {{task.explanation}}", created.Content)
}

func TestCreateTemplateAPI_DuplicateConflicts(t *testing.T) {
	router, _ := setupTestApp(t, "tmpl_conflict")

	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))
	w := performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))
	assert.Equal(t, http.StatusConflict, w.Result().StatusCode())
}

func TestCreateTemplateAPI_MissingContent(t *testing.T) {
	router, _ := setupTestApp(t, "tmpl_invalid")

	w := performJSON(t, router, "POST", "/api/templates", map[string]interface{}{
		"id":   "tpl1",
		"name": "No body",
	})
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
}

func TestListTemplatesAPI_TagFilter(t *testing.T) {
	router, _ := setupTestApp(t, "tmpl_filter")

	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))
	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl2", "refactor"))

	w := ut.PerformRequest(router, "GET", "/api/templates?tag=refactor", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	var templates []db.Template
	assert.NoError(t, json.Unmarshal(resp.Body(), &templates))
	if assert.Len(t, templates, 1) {
		assert.Equal(t, "tpl2", templates[0].ID)
	}
}

func TestUpdateTemplateAPI(t *testing.T) {
	router, _ := setupTestApp(t, "tmpl_patch")
	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))

	w := performJSON(t, router, "PATCH", "/api/templates/tpl1", map[string]interface{}{
		"content": "Resolve: {{task.task_name}}",
	})
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	var updated db.Template
	assert.NoError(t, json.Unmarshal(resp.Body(), &updated))
	assert.Equal(t, "Resolve: {{task.task_name}}", updated.Content)
	assert.Equal(t, "Bug fix", updated.Name, "unsupplied fields keep prior values")
}

func TestDeleteTemplateAPI(t *testing.T) {
	router, _ := setupTestApp(t, "tmpl_delete")
	performJSON(t, router, "POST", "/api/templates", templatePayload("tpl1", "bugfix"))

	w := ut.PerformRequest(router, "DELETE", "/api/templates/tpl1", nil)
	assert.Equal(t, http.StatusNoContent, w.Result().StatusCode())

	w = ut.PerformRequest(router, "GET", "/api/templates/tpl1", nil)
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode())
}
