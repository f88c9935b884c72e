// internal/model/execution.go
package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ExecutionSource tells where a batch came from.
type ExecutionSource string

const (
	SourceRelay   ExecutionSource = "RELAY"
	SourceSession ExecutionSource = "SESSION"
)

// ExecutionRecord is the stored outcome of one Execute call.
type ExecutionRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Source        ExecutionSource `json:"source" db:"source"`
	SessionName   string          `json:"session_name,omitempty" db:"session_name"`
	Driver        DriverKind      `json:"driver" db:"driver"`
	TaskCount     int             `json:"task_count" db:"task_count"`
	TaskTypes     JSONObject      `json:"task_types" db:"task_types"`
	ResultCode    ResponseCode    `json:"result_code" db:"result_code"`
	ResultInfo    string          `json:"result_info" db:"result_info"`
	FailedTask    string          `json:"failed_task,omitempty" db:"failed_task"`
	Finished      bool            `json:"finished" db:"finished"`
	StartedAt     time.Time       `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at" db:"completed_at"`
	DurationMs    *int            `json:"duration_ms" db:"duration_ms"`
	CorrelationID *string         `json:"correlation_id,omitempty" db:"correlation_id"`
}

// IsSuccess reports whether the batch completed with SUCCESS.
func (r *ExecutionRecord) IsSuccess() bool {
	return r.ResultCode == CodeSuccess
}

// Complete stamps the record with the response and elapsed time.
func (r *ExecutionRecord) Complete(resp BaseResponse, finished bool) {
	now := time.Now()
	duration := int(now.Sub(r.StartedAt).Milliseconds())
	r.CompletedAt = &now
	r.DurationMs = &duration
	r.ResultCode = resp.ResultCode
	r.ResultInfo = resp.ResultInfo
	r.FailedTask = string(FailedTask(resp.ResultInfo))
	r.Finished = finished
}

var failedTaskPattern = regexp.MustCompile(`(?:^Failed to execute task (\w+)\.|\(task (\w+)\)$)`)

// FailedTask extracts the task type named by a failure message, or "".
func FailedTask(info string) TaskType {
	m := failedTaskPattern.FindStringSubmatch(info)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return TaskType(m[1])
	}
	return TaskType(m[2])
}

// CountTaskTypes summarises a batch as type -> occurrences.
func CountTaskTypes(tasks []Task) JSONObject {
	counts := JSONObject{}
	for _, t := range tasks {
		n, _ := counts[string(t.Type)].(int)
		counts[string(t.Type)] = n + 1
	}
	return counts
}

// ExecutionFilter narrows history listings.
type ExecutionFilter struct {
	Driver      DriverKind
	SessionName string
	OnlyFailed  bool
	Limit       int
	Offset      int
}

// ExecutionStats aggregates history for reporting.
type ExecutionStats struct {
	Total           int64   `json:"total"`
	Succeeded       int64   `json:"succeeded"`
	Failed          int64   `json:"failed"`
	AverageDuration float64 `json:"average_duration_ms"`
}
