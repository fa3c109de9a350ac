package events

// CodexLaunchPayload is published by the API when a codex run starts
// and consumed by the codex-agent worker.
type CodexLaunchPayload struct {
	TaskID    string `json:"task_id"`
	CodexURL  string `json:"codex_url"`
	Prompt    string `json:"prompt"`
	RepoLabel string `json:"repo_label,omitempty"`
}

// CodexRunResultPayload is published by the codex-agent worker after a
// run finishes and consumed by the API's result service, which writes
// the outcome back onto the task.
type CodexRunResultPayload struct {
	TaskID string `json:"task_id"`
	RunID  string `json:"run_id"`
	Status string `json:"status"` // fixed or failed
	Detail string `json:"detail,omitempty"`
}
