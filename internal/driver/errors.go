// internal/driver/errors.go
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/protocol"
)

var (
	ErrMethodNotSupported = errors.New("method not supported")
	ErrInitFailure        = errors.New("init failure")
	ErrNotConnected       = errors.New("device not connected")
)

// TaskErrorStyle selects how a TaskError renders.
type TaskErrorStyle int

const (
	// SuffixStyle renders "<cause> (task <type>)".
	SuffixStyle TaskErrorStyle = iota
	// PrefixStyle renders "Failed to execute task <type>. <cause>".
	PrefixStyle
)

// TaskError ties a failure to the task that caused it.
type TaskError struct {
	Task  model.TaskType
	Err   error
	Style TaskErrorStyle
}

// NewTaskError tags err with the task type.
func NewTaskError(task model.TaskType, err error) *TaskError {
	return &TaskError{Task: task, Err: err}
}

func (e *TaskError) Error() string {
	if e.Style == PrefixStyle {
		return fmt.Sprintf("Failed to execute task %s. %s", e.Task, Describe(e.Err))
	}
	return fmt.Sprintf("%s (task %s)", Describe(e.Err), e.Task)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Describe renders err for a response. Transport failures are reduced to
// "host connection failure", "time out" or "io exception <detail>"; any
// other error keeps its own message.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		return taskErr.Error()
	}

	if isTimeout(err) {
		return "time out"
	}
	if errors.Is(err, protocol.ErrConnectFailed) || isDialError(err) {
		return "host connection failure"
	}
	if isIOError(err) {
		return "io exception " + rootCause(err).Error()
	}
	return err.Error()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isIOError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, protocol.ErrNotOpen) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
