package executors

import (
	"fmt"
	"log"
)

// RunPayload is the unit of work handed to an executor: one prepared
// launch plus a correlation id for logs and result events.
type RunPayload struct {
	RunID     string
	TaskID    string
	CodexURL  string
	Prompt    string
	RepoLabel string
}

// Executor types.
const (
	ExecutorTypeBrowser = "browser-executor"
	ExecutorTypeDryRun  = "dry-run-executor"
)

// Executor drives one codex run to completion. detail becomes the
// history entry on the task; err marks the run failed.
type Executor interface {
	Execute(payload RunPayload) (detail string, err error)
}

var Registry = make(map[string]Executor)

func init() {
	RegisterExecutor(ExecutorTypeBrowser, &BrowserExecutor{})
	RegisterExecutor(ExecutorTypeDryRun, &DryRunExecutor{})
	log.Println("Executor registry initialized with known executors.")
}

func RegisterExecutor(executorType string, executor Executor) {
	log.Printf("Registering executor for type: %s", executorType)
	Registry[executorType] = executor
}

func GetExecutor(executorType string) (Executor, error) {
	executor, exists := Registry[executorType]
	if !exists {
		return nil, fmt.Errorf("no executor registered for type: %s", executorType)
	}
	return executor, nil
}
