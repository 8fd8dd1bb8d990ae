package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError defines errors that carry their own HTTP status code.
// Errors wrapping only a sentinel are mapped by the handler instead.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrCorrupted marks a persisted node set that no longer forms a tree.
	// It is a server-side defect, never a client mistake.
	ErrCorrupted = errors.New("tree corrupted")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (tree, node, history)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// CorruptionError reports which tree and which nodes broke a structural invariant.
type CorruptionError struct {
	TreeID  string
	NodeIDs []string
	Err     error // the specific structural failure (no root, cycle, ...)
}

func (e *CorruptionError) Error() string {
	msg := fmt.Sprintf("tree %s corrupted: %v", e.TreeID, e.Err)
	if len(e.NodeIDs) > 0 {
		msg += " (nodes: " + strings.Join(e.NodeIDs, ", ") + ")"
	}
	return msg
}

// StatusCode implements the HTTPError interface
func (e *CorruptionError) StatusCode() int {
	return http.StatusInternalServerError
}

// Is allows errors.Is() to match against ErrCorrupted
func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorrupted
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}
