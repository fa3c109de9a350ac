// Package codex orchestrates the task launch lifecycle: binding a
// template to a task, persisting the rendered artifact, and starting
// runs against the external automation agent.
package codex

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"byebug-backend/internal/byebug-api/db"
	"byebug-backend/internal/byebug-api/events"
	"byebug-backend/internal/byebug-api/prompt"
	"byebug-backend/internal/byebug-api/store"
)

// DefaultBaseURL is the launch page used when the caller does not
// supply one.
const DefaultBaseURL = "https://chat.openai.com/codex"

// ErrNoLaunchURL indicates StartRun was invoked before PrepareLaunch
// ever produced a launch artifact for the task.
var ErrNoLaunchURL = errors.New("Task has no Codex URL")

// ProducerInterface is the slice of kafka.Writer the launcher needs;
// tests substitute a recorder.
type ProducerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Launch is the prepared artifact handed to the automation agent.
type Launch struct {
	CodexURL string `json:"codex_url"`
	Prompt   string `json:"prompt"`
}

// Launcher coordinates stores, renderer, and the launch-event producer.
// Producer may be nil when event dispatch is disabled.
type Launcher struct {
	Tasks     *store.TaskStore
	Templates *store.TemplateStore
	Producer  ProducerInterface
	RepoLabel string
}

func NewLauncher(tasks *store.TaskStore, templates *store.TemplateStore, producer ProducerInterface, repoLabel string) *Launcher {
	return &Launcher{Tasks: tasks, Templates: templates, Producer: producer, RepoLabel: repoLabel}
}

// PrepareLaunch renders the template against the task, composes the
// launch URL, and persists prompt and URL onto the task in one write.
// Nothing is written before the render succeeds: a missing task or
// template or a render failure leaves the task record untouched.
func (l *Launcher) PrepareLaunch(ctx context.Context, taskID, templateID, baseURL string) (*Launch, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	task, err := l.Tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	tmpl, err := l.Templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	rendered, err := prompt.Render(tmpl.Content, task)
	if err != nil {
		return nil, err
	}
	codexURL := baseURL + "?prompt=" + prompt.Quote(rendered)

	if err := l.Tasks.SetLaunchArtifact(ctx, taskID, rendered, codexURL); err != nil {
		return nil, err
	}
	return &Launch{CodexURL: codexURL, Prompt: rendered}, nil
}

// StartRun transitions the task to progress and returns the stored
// launch artifact unchanged. It never re-renders. The transition is
// idempotent when the task is already in progress. After the
// transition it dispatches a launch event for the agent worker; a
// dispatch failure is reported via the returned warning, not as an
// operation failure, since the status change already happened.
func (l *Launcher) StartRun(ctx context.Context, taskID string) (*Launch, string, error) {
	task, err := l.Tasks.Get(ctx, taskID)
	if err != nil {
		return nil, "", err
	}
	if task.CodexURL == nil || *task.CodexURL == "" {
		return nil, "", ErrNoLaunchURL
	}

	if task.Status != db.StatusProgress {
		if _, err := l.Tasks.SetStatus(ctx, taskID, db.StatusProgress); err != nil {
			return nil, "", err
		}
	}

	launch := &Launch{CodexURL: *task.CodexURL, Prompt: derefString(task.Prompt)}

	warning := ""
	if l.Producer != nil {
		if err := l.dispatch(ctx, task.ID, launch); err != nil {
			log.Printf("Launcher: failed to dispatch launch event for task %s: %v", task.ID, err)
			warning = "failed to dispatch launch event: " + err.Error()
		}
	}
	return launch, warning, nil
}

func (l *Launcher) dispatch(ctx context.Context, taskID string, launch *Launch) error {
	payload := events.CodexLaunchPayload{
		TaskID:    taskID,
		CodexURL:  launch.CodexURL,
		Prompt:    launch.Prompt,
		RepoLabel: l.RepoLabel,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return l.Producer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(taskID),
		Value: payloadBytes,
	})
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
