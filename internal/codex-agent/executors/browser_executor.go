package executors

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"
)

const (
	DefaultAutomationCmd = "codex-automation"
	defaultRunTimeout    = 10 * time.Minute
)

// BrowserExecutor delegates the run to an external automation command
// that owns the browser session (profile, login, and the click
// sequence against the launch page). The command receives the launch
// URL and the repository label as arguments; its exit status decides
// the run outcome and its stdout becomes the run detail.
type BrowserExecutor struct{}

func (be *BrowserExecutor) Execute(payload RunPayload) (string, error) {
	if payload.CodexURL == "" {
		return "", fmt.Errorf("run %s has no codex URL", payload.RunID)
	}

	command := os.Getenv("CODEX_AUTOMATION_CMD")
	if command == "" {
		command = DefaultAutomationCmd
	}

	log.Printf("BrowserExecutor: run %s for task %s opening %s", payload.RunID, payload.TaskID, payload.CodexURL)

	cmd := exec.Command(command, payload.CodexURL, payload.RepoLabel)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	timeout := defaultRunTimeout
	if raw := os.Getenv("CODEX_RUN_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			timeout = parsed
		} else {
			log.Printf("BrowserExecutor: invalid CODEX_RUN_TIMEOUT %q, keeping %s", raw, timeout)
		}
	}

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("automation command failed to start: %w", err)
	}
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-time.After(timeout):
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		log.Printf("BrowserExecutor: run %s timed out after %s", payload.RunID, timeout)
		return "", fmt.Errorf("automation run timed out after %s. Stderr: %s", timeout, stderr.String())
	case err := <-done:
		if err != nil {
			log.Printf("BrowserExecutor: run %s failed: %v. Stderr: %s", payload.RunID, err, stderr.String())
			return "", fmt.Errorf("automation run failed: %w. Stderr: %s", err, stderr.String())
		}
	}

	detail := stdout.String()
	log.Printf("BrowserExecutor: run %s completed. Stdout: %s", payload.RunID, detail)
	if stderr.Len() > 0 {
		log.Printf("BrowserExecutor: run %s has stderr content:\n%s", payload.RunID, stderr.String())
	}
	return detail, nil
}

var _ Executor = (*BrowserExecutor)(nil)
