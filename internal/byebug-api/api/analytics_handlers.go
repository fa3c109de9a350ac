package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"byebug-backend/internal/byebug-api/db"
	"byebug-backend/internal/byebug-api/services"
	"byebug-backend/internal/byebug-api/store"
	"byebug-backend/pkg/validation"
)

// Ingestion payloads are validated against these schemas before they
// touch the store, so a malformed record can never skew the aggregates.
const (
	testRunSchema = `{
		"type": "object",
		"required": ["id", "module", "date", "totalTests", "passedTests", "failedTests", "duration", "coverage", "testRunType"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"module": {"type": "string", "minLength": 1},
			"date": {"type": "string", "minLength": 1},
			"totalTests": {"type": "integer", "minimum": 0},
			"passedTests": {"type": "integer", "minimum": 0},
			"failedTests": {"type": "integer", "minimum": 0},
			"duration": {"type": "integer", "minimum": 0},
			"coverage": {"type": "number", "minimum": 0, "maximum": 100},
			"testRunType": {"enum": ["unit", "integration", "e2e"]}
		}
	}`

	bugSchema = `{
		"type": "object",
		"required": ["id", "module", "detectedDate", "severity", "status", "detectionMethod", "description"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"module": {"type": "string", "minLength": 1},
			"detectedDate": {"type": "string", "minLength": 1},
			"severity": {"enum": ["critical", "high", "medium", "low"]},
			"status": {"enum": ["detected", "fixing", "fixed", "verified"]},
			"detectionMethod": {"enum": ["ai", "manual", "automated"]},
			"fixedDate": {"type": "string"},
			"testPassAfterFix": {"type": "boolean"},
			"description": {"type": "string"}
		}
	}`

	coverageSchema = `{
		"type": "object",
		"required": ["module", "date", "lineCoverage", "branchCoverage", "functionCoverage"],
		"properties": {
			"module": {"type": "string", "minLength": 1},
			"date": {"type": "string", "minLength": 1},
			"lineCoverage": {"type": "number", "minimum": 0, "maximum": 100},
			"branchCoverage": {"type": "number", "minimum": 0, "maximum": 100},
			"functionCoverage": {"type": "number", "minimum": 0, "maximum": 100}
		}
	}`
)

type AnalyticsHandler struct {
	Analytics *store.AnalyticsStore
	Snapshots *services.SnapshotService
}

func NewAnalyticsHandler(analytics *store.AnalyticsStore, snapshots *services.SnapshotService) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: analytics, Snapshots: snapshots}
}

func (h *AnalyticsHandler) GetTestRuns(ctx context.Context, c *app.RequestContext) {
	runs, err := h.Analytics.ListTestRuns(ctx)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *AnalyticsHandler) CreateTestRun(ctx context.Context, c *app.RequestContext) {
	var run db.TestRun
	if !bindValidated(c, testRunSchema, &run) {
		return
	}
	if err := h.Analytics.CreateTestRun(ctx, &run); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func (h *AnalyticsHandler) GetBugs(ctx context.Context, c *app.RequestContext) {
	bugs, err := h.Analytics.ListBugs(ctx)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, bugs)
}

func (h *AnalyticsHandler) CreateBug(ctx context.Context, c *app.RequestContext) {
	var bug db.Bug
	if !bindValidated(c, bugSchema, &bug) {
		return
	}
	if err := h.Analytics.CreateBug(ctx, &bug); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bug)
}

func (h *AnalyticsHandler) GetCoverage(ctx context.Context, c *app.RequestContext) {
	cov, err := h.Analytics.ListCoverage(ctx)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, cov)
}

func (h *AnalyticsHandler) CreateCoverage(ctx context.Context, c *app.RequestContext) {
	var cov db.ModuleCoverage
	if !bindValidated(c, coverageSchema, &cov) {
		return
	}
	if err := h.Analytics.CreateCoverage(ctx, &cov); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cov)
}

func (h *AnalyticsHandler) GetSummary(ctx context.Context, c *app.RequestContext) {
	summary, err := h.Analytics.Summary(ctx)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) GetSnapshots(ctx context.Context, c *app.RequestContext) {
	snaps, err := h.Analytics.ListSnapshots(ctx)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, snaps)
}

// RefreshSnapshot forces one snapshot outside the cron cadence.
func (h *AnalyticsHandler) RefreshSnapshot(ctx context.Context, c *app.RequestContext) {
	h.Snapshots.TakeSnapshot()
	c.JSON(http.StatusOK, utils.H{"message": "Analytics snapshot triggered"})
}

// bindValidated checks the raw body against schemaJSON, then unmarshals
// it into out. Responds 400 and returns false on any failure.
func bindValidated(c *app.RequestContext, schemaJSON string, out interface{}) bool {
	body := c.Request.Body()
	if err := validation.ValidateJSONWithSchema(schemaJSON, string(body)); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid payload: " + err.Error()})
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid payload: " + err.Error()})
		return false
	}
	return true
}
