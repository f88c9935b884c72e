package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFailedTask(t *testing.T) {
	tests := []struct {
		info string
		want TaskType
	}{
		{"Failed to execute task Registration. 69: Payment too small", TaskRegistration},
		{"host connection failure (task String)", TaskString},
		{"init failure", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FailedTask(tt.info), tt.info)
	}
}

func TestExecutionRecordComplete(t *testing.T) {
	r := ExecutionRecord{StartedAt: time.Now().Add(-50 * time.Millisecond)}
	r.Complete(BaseResponse{ResultCode: CodeHandlingError, ResultInfo: "time out (task Cut)"}, true)

	assert.False(t, r.IsSuccess())
	assert.Equal(t, "Cut", r.FailedTask)
	assert.True(t, r.Finished)
	assert.NotNil(t, r.CompletedAt)
	assert.GreaterOrEqual(t, *r.DurationMs, 50)
}

func TestCountTaskTypes(t *testing.T) {
	counts := CountTaskTypes([]Task{NewTask(TaskString, "a"), NewTask(TaskString, "b"), NewTask(TaskCut, "")})
	assert.Equal(t, JSONObject{"String": 2, "Cut": 1}, counts)
}
