// Package apperr holds the error taxonomy surfaced by the stage engine.
package apperr

import "fmt"

// ValidationError is returned for bad caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// StateError is returned when an operation is not allowed in the current stage.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// NotFoundError is returned for a missing division, match or team.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %d not found", e.Entity, e.ID) }

// ConcurrencyError is returned when another mutation of the same division committed first.
type ConcurrencyError struct {
	DivisionID uint
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("division %d was modified concurrently, retry the operation", e.DivisionID)
}

// IncompleteStageError is a StateError raised when a stage still has unscored matches.
type IncompleteStageError struct {
	Stage   string
	Pending int
}

func (e *IncompleteStageError) Error() string {
	return fmt.Sprintf("stage %s is not complete: %d match(es) still need results", e.Stage, e.Pending)
}

func (e *IncompleteStageError) Unwrap() error { return &StateError{Msg: e.Error()} }

// RosterError is a ValidationError raised when an MLP roster is not exactly 2 women and 2 men.
type RosterError struct {
	TeamID  uint
	Females int
	Males   int
}

func (e *RosterError) Error() string {
	return fmt.Sprintf("team %d must have exactly 2 female and 2 male players for MLP, has %d female and %d male",
		e.TeamID, e.Females, e.Males)
}

func (e *RosterError) Unwrap() error { return &ValidationError{Msg: e.Error()} }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func State(format string, args ...interface{}) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}
