package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/joho/godotenv"

	"byebug-backend/internal/byebug-api/api"
	"byebug-backend/internal/byebug-api/codex"
	byebugDB "byebug-backend/internal/byebug-api/db"
	bbKafka "byebug-backend/internal/byebug-api/kafka"
	"byebug-backend/internal/byebug-api/services"
	"byebug-backend/internal/byebug-api/store"
	gorm_db "byebug-backend/pkg/db"
)

func main() {
	stdlog.Println("Byebug API Service starting...")

	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file loaded, relying on process environment.")
	}

	appCtx, appCancel := context.WithCancel(context.Background())

	gormDB, err := gorm_db.NewGormDB()
	if err != nil {
		stdlog.Fatalf("Failed to initialize database: %v", err)
	}
	stdlog.Println("Database initialized successfully.")

	stdlog.Println("Running database migrations...")
	err = gorm_db.AutoMigrate(gormDB,
		&byebugDB.Task{}, &byebugDB.Template{},
		&byebugDB.TestRun{}, &byebugDB.Bug{}, &byebugDB.ModuleCoverage{},
		&byebugDB.AnalyticsSnapshot{})
	if err != nil {
		stdlog.Fatalf("Failed to migrate database: %v", err)
	}
	stdlog.Println("Database migration successful.")

	taskStore := store.NewTaskStore(gormDB)
	templateStore := store.NewTemplateStore(gormDB)
	analyticsStore := store.NewAnalyticsStore(gormDB)

	launchProducer := bbKafka.NewLaunchProducer()
	launcher := codex.NewLauncher(taskStore, templateStore, launchProducer, os.Getenv("CODEX_REPO_LABEL"))

	resultService := services.NewResultService(taskStore)
	resultService.StartConsuming(appCtx)

	snapshotService, err := services.NewSnapshotService(appCtx, analyticsStore)
	if err != nil {
		stdlog.Fatalf("Failed to create snapshot service: %v", err)
	}
	snapshotService.Start()

	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	hlog.SetOutput(os.Stdout)
	hlog.SetLevel(hlog.LevelInfo)

	h := server.Default(server.WithHostPorts(serverAddr), server.WithExitWaitTime(5*time.Second))

	taskHandler := api.NewTaskHandler(taskStore)
	templateHandler := api.NewTemplateHandler(templateStore)
	codexHandler := api.NewCodexHandler(launcher)
	analyticsHandler := api.NewAnalyticsHandler(analyticsStore, snapshotService)

	apiGroup := h.Group("/api")

	taskGroup := apiGroup.Group("/tasks")
	{
		taskGroup.GET("", taskHandler.GetTasks)
		taskGroup.POST("", taskHandler.CreateTask)
		taskGroup.GET("/:id", taskHandler.GetTaskByID)
		taskGroup.PATCH("/:id", taskHandler.UpdateTask)
		taskGroup.DELETE("/:id", taskHandler.DeleteTask)
		taskGroup.POST("/:id/run-codex", codexHandler.RunCodex)
	}

	templateGroup := apiGroup.Group("/templates")
	{
		templateGroup.GET("", templateHandler.GetTemplates)
		templateGroup.POST("", templateHandler.CreateTemplate)
		templateGroup.GET("/:id", templateHandler.GetTemplateByID)
		templateGroup.PATCH("/:id", templateHandler.UpdateTemplate)
		templateGroup.DELETE("/:id", templateHandler.DeleteTemplate)
	}

	apiGroup.GET("/codex/url/:task_id", codexHandler.GenerateCodexURL)

	analyticsGroup := apiGroup.Group("/analytics")
	{
		analyticsGroup.GET("/test-runs", analyticsHandler.GetTestRuns)
		analyticsGroup.POST("/test-runs", analyticsHandler.CreateTestRun)
		analyticsGroup.GET("/bugs", analyticsHandler.GetBugs)
		analyticsGroup.POST("/bugs", analyticsHandler.CreateBug)
		analyticsGroup.GET("/coverage", analyticsHandler.GetCoverage)
		analyticsGroup.POST("/coverage", analyticsHandler.CreateCoverage)
		analyticsGroup.GET("/summary", analyticsHandler.GetSummary)
		analyticsGroup.GET("/snapshots", analyticsHandler.GetSnapshots)
	}

	adminGroup := h.Group("/admin")
	adminGroup.POST("/analytics/refresh", analyticsHandler.RefreshSnapshot)

	h.GET("/ping", func(c context.Context, ctxReq *app.RequestContext) {
		ctxReq.JSON(http.StatusOK, utils.H{"message": "pong"})
	})

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		sig := <-signals
		hlog.Infof("Received signal: %s. Initiating graceful shutdown...", sig)

		appCancel()

		shutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer httpShutdownCancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			hlog.Errorf("Hertz server shutdown error: %v", err)
		} else {
			hlog.Info("Hertz server gracefully stopped.")
		}

		snapshotService.Stop()

		resultService.Close()
		hlog.Info("Result service consumer closed.")

		if err := launchProducer.Close(); err != nil {
			hlog.Errorf("Kafka producer close error: %v", err)
		} else {
			hlog.Info("Kafka producer closed.")
		}
		hlog.Info("Byebug API gracefully shut down.")
	}()

	hlog.Infof("Byebug API fully initialized, starting Hertz server on %s...", serverAddr)
	h.Spin()

	stdlog.Println("Byebug API Service has been shut down.")
}
