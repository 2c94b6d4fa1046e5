package timing

import (
	"errors"
	"fmt"
)

var (
	ErrCycle              = errors.New("timing: task hierarchy contains a cycle")
	ErrMultipleIncomplete = errors.New("timing: task has more than one incomplete record")
	ErrStore              = errors.New("timing: store read failed")
)

// CycleError is returned when a task is reached twice while walking subtasks
type CycleError struct {
	TaskID int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("timing: task %d is its own ancestor", e.TaskID)
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// MultipleIncompleteError reports a task with more than one running record
type MultipleIncompleteError struct {
	TaskID int64
	Count  int
}

func (e *MultipleIncompleteError) Error() string {
	return fmt.Sprintf("timing: task %d has %d incomplete records", e.TaskID, e.Count)
}

func (e *MultipleIncompleteError) Is(target error) bool { return target == ErrMultipleIncomplete }

// StoreError wraps a failed store read
type StoreError struct {
	Op     string
	TaskID int64
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("timing: %s for task %d: %v", e.Op, e.TaskID, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func (e *StoreError) Unwrap() error { return e.Err }
