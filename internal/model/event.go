// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventSessionCreated     EventType = "SESSION_CREATED"
	EventSessionDisposed    EventType = "SESSION_DISPOSED"
	EventExecutionStarted   EventType = "EXECUTION_STARTED"
	EventExecutionCompleted EventType = "EXECUTION_COMPLETED"
	EventExecutionFailed    EventType = "EXECUTION_FAILED"
	EventDeviceDiscovered   EventType = "DEVICE_DISCOVERED"
)

// Event is published on the event bus and streamed to websocket clients.
type Event struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	Session   string     `json:"session,omitempty"`
	Driver    DriverKind `json:"driver,omitempty"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR
}

// NewEvent stamps a fresh event.
func NewEvent(eventType EventType, source string, data JSONObject) Event {
	severity := "INFO"
	if eventType == EventExecutionFailed {
		severity = "ERROR"
	}
	return Event{
		ID:        uuid.New(),
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    source,
		Severity:  severity,
	}
}

// ExecutionEventData is carried by execution events.
type ExecutionEventData struct {
	ExecutionID uuid.UUID    `json:"execution_id"`
	TaskCount   int          `json:"task_count"`
	ResultCode  ResponseCode `json:"result_code"`
	ResultInfo  string       `json:"result_info,omitempty"`
	DurationMs  *int         `json:"duration_ms,omitempty"`
}

// Object flattens d into an event payload.
func (d ExecutionEventData) Object() JSONObject {
	obj := JSONObject{
		"execution_id": d.ExecutionID.String(),
		"task_count":   d.TaskCount,
		"result_code":  int(d.ResultCode),
	}
	if d.ResultInfo != "" {
		obj["result_info"] = d.ResultInfo
	}
	if d.DurationMs != nil {
		obj["duration_ms"] = *d.DurationMs
	}
	return obj
}
