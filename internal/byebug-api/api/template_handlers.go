package api

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"byebug-backend/internal/byebug-api/db"
	"byebug-backend/internal/byebug-api/store"
)

type TemplateHandler struct {
	Templates *store.TemplateStore
}

func NewTemplateHandler(templates *store.TemplateStore) *TemplateHandler {
	return &TemplateHandler{Templates: templates}
}

type CreateTemplateRequest struct {
	ID          string `json:"id" vd:"len($)>0"`
	Name        string `json:"name" vd:"len($)>0"`
	Description string `json:"description"`
	Content     string `json:"content" vd:"len($)>0"`
	Tag         string `json:"tag"`
}

func (h *TemplateHandler) CreateTemplate(ctx context.Context, c *app.RequestContext) {
	var req CreateTemplateRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	tmpl := db.Template{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Content:     req.Content,
		Tag:         req.Tag,
	}
	if err := h.Templates.Create(ctx, &tmpl); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (h *TemplateHandler) GetTemplates(ctx context.Context, c *app.RequestContext) {
	templates, err := h.Templates.List(ctx, c.Query("tag"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTemplateByID(ctx context.Context, c *app.RequestContext) {
	tmpl, err := h.Templates.Get(ctx, c.Param("id"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *TemplateHandler) UpdateTemplate(ctx context.Context, c *app.RequestContext) {
	var patch store.TemplatePatch
	if err := c.BindAndValidate(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	tmpl, err := h.Templates.Update(ctx, c.Param("id"), patch)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *TemplateHandler) DeleteTemplate(ctx context.Context, c *app.RequestContext) {
	if err := h.Templates.Delete(ctx, c.Param("id")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
