package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"byebug-backend/internal/byebug-api/codex"
	"byebug-backend/internal/byebug-api/prompt"
)

type CodexHandler struct {
	Launcher *codex.Launcher
}

func NewCodexHandler(launcher *codex.Launcher) *CodexHandler {
	return &CodexHandler{Launcher: launcher}
}

// GenerateCodexURL renders the template against the task, stores the
// resulting prompt/URL pair on the task, and returns it. A render
// failure is surfaced as 422 naming the offending placeholder; it is
// never downgraded to a blank substitution.
func (h *CodexHandler) GenerateCodexURL(ctx context.Context, c *app.RequestContext) {
	taskID := c.Param("task_id")
	templateID := c.Query("template_id")
	if templateID == "" {
		c.JSON(http.StatusBadRequest, utils.H{"error": "template_id query parameter is required"})
		return
	}
	baseURL := c.Query("base_url")

	launch, err := h.Launcher.PrepareLaunch(ctx, taskID, templateID, baseURL)
	if err != nil {
		var renderErr *prompt.RenderError
		if errors.As(err, &renderErr) {
			c.JSON(http.StatusUnprocessableEntity, utils.H{"error": renderErr.Error()})
			return
		}
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, launch)
}

// RunCodex marks the task as in progress and hands back the stored
// launch artifact. 400 when no launch was ever prepared for the task.
func (h *CodexHandler) RunCodex(ctx context.Context, c *app.RequestContext) {
	launch, warning, err := h.Launcher.StartRun(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, codex.ErrNoLaunchURL) {
			c.JSON(http.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		writeStoreError(c, err)
		return
	}
	if warning != "" {
		c.JSON(http.StatusOK, utils.H{"codex_url": launch.CodexURL, "prompt": launch.Prompt, "dispatch_warning": warning})
		return
	}
	c.JSON(http.StatusOK, launch)
}
