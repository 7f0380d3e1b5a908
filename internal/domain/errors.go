package domain

import "errors"

// Domain errors.
var (
	ErrOwnerNotSet         = errors.New("tracker owner not set")
	ErrUnmappedProject     = errors.New("project does not exist in the tracker")
	ErrConflictAborted     = errors.New("aborted due to conflict between snapshot and remote states")
	ErrDependencyCycle     = errors.New("cycle detected in blocking dependencies")
	ErrUnknownWorkflowState = errors.New("workflow state not found in the tracker")
)
