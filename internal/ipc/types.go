package ipc

// StartRequest triggers pipeline startup.
type StartRequest struct{}

// StartResponse indicates whether the pipeline was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the pipeline.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// PreflightResult describes one readiness check outcome.
type PreflightResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// StatusResponse represents combined daemon and pipeline status.
type StatusResponse struct {
	Running      bool              `json:"running"`
	PID          int               `json:"pid"`
	LockPath     string            `json:"lock_path"`
	AuditLogPath string            `json:"audit_log_path"`
	StageCounts  map[string]int    `json:"stage_counts"`
	QueuePending []string          `json:"queue_pending"`
	Processed    int               `json:"processed"`
	Preflight    []PreflightResult `json:"preflight"`
}

// QueueListRequest fetches the pending upload queue.
type QueueListRequest struct{}

// QueueListResponse contains pending upload entries in drain order.
type QueueListResponse struct {
	Pending   []string `json:"pending"`
	Processed int      `json:"processed"`
}
