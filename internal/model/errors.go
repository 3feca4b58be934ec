package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies every error the core can produce, so callers can
// distinguish a slow-but-working executor from a genuinely broken one
// without string matching.
type ErrorCode string

const (
	// Validation-stage codes. These surface before any node runs.
	CodeUnknownComponent ErrorCode = "unknown_component"
	CodeDuplicateNode    ErrorCode = "duplicate_node"
	CodeDanglingEdge     ErrorCode = "dangling_edge"
	CodeUnknownPort      ErrorCode = "unknown_port"
	CodeCycle            ErrorCode = "cycle"

	// Connection codes, per edge.
	CodeUnknownType ErrorCode = "unknown_type"
	CodeNoPath      ErrorCode = "no_transformation_path"

	// Node-level codes.
	CodeRuntime   ErrorCode = "runtime"
	CodeBadOutput ErrorCode = "bad_output"
	CodeTimeout   ErrorCode = "timeout"
	CodeSkipped   ErrorCode = "skipped"

	// Whole-run codes.
	CodeCancelled ErrorCode = "cancelled"
)

// Error is the structured error type used across the core. NodeID is empty
// for errors that are not attributable to a single node.
type Error struct {
	Code   ErrorCode
	NodeID string
	Msg    string
	Cause  error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	if e.NodeID != "" {
		sb.WriteString(" [")
		sb.WriteString(e.NodeID)
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a structured core error.
func NewError(code ErrorCode, nodeID, format string, args ...any) *Error {
	return &Error{Code: code, NodeID: nodeID, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause to a structured core error.
func WrapError(code ErrorCode, nodeID string, cause error, format string, args ...any) *Error {
	return &Error{Code: code, NodeID: nodeID, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed. It returns
// an empty code when err carries no *Error.
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// ValidationError aggregates every structural problem found in a workflow
// definition; it is raised synchronously, before any node is scheduled.
type ValidationError struct {
	Problems []*Error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("workflow validation failed:\n- %s", strings.Join(msgs, "\n- "))
}
