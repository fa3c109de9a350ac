package executors

import (
	"fmt"
	"log"
)

// DryRunExecutor reports success without touching a browser. Used for
// local development and tests of the worker loop.
type DryRunExecutor struct{}

func (e *DryRunExecutor) Execute(payload RunPayload) (string, error) {
	log.Printf("DryRunExecutor: run %s for task %s would open %s", payload.RunID, payload.TaskID, payload.CodexURL)
	return fmt.Sprintf("dry run: would open %s", payload.CodexURL), nil
}

var _ Executor = (*DryRunExecutor)(nil)
