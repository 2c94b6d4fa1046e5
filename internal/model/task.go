package model

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task field names, in declaration order
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDone        = "done"
	FieldProject     = "project"
	FieldSection     = "section"
	FieldPosition    = "position"
	FieldSuspended   = "suspended"
	FieldParent      = "parent"
	FieldDescription = "description"
	FieldDate        = "date"
)

// TaskFields lists every task field in declaration order. Diffing, row decoding
// and the variant codec all follow this order.
var TaskFields = []string{
	FieldID,
	FieldName,
	FieldDone,
	FieldProject,
	FieldSection,
	FieldPosition,
	FieldSuspended,
	FieldParent,
	FieldDescription,
	FieldDate,
}

// Fields is a partial mapping of field name to value
type Fields map[string]any

// ChangeFunc is called after a setter changed a field
type ChangeFunc func(t *Task, field string)

// Task represents a trackable unit of work. Tasks form a forest through Parent.
type Task struct {
	id          int64
	name        string
	done        bool
	project     int64
	section     int64
	position    int32
	suspended   bool
	parent      int64
	description string
	date        int64

	mu        sync.Mutex
	observers map[uuid.UUID]ChangeFunc
}

// NewTask creates a task from a partial field mapping. Missing fields keep
// their zero value.
func NewTask(fields Fields) (*Task, error) {
	t := &Task{}
	if err := t.SetFields(fields); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTask is NewTask for literals known to be valid
func MustTask(fields Fields) *Task {
	t, err := NewTask(fields)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Task) ID() int64           { return t.id }
func (t *Task) Name() string        { return t.name }
func (t *Task) Done() bool          { return t.done }
func (t *Task) Project() int64      { return t.project }
func (t *Task) Section() int64      { return t.section }
func (t *Task) Position() int32     { return t.position }
func (t *Task) Suspended() bool     { return t.suspended }
func (t *Task) Parent() int64       { return t.parent }
func (t *Task) Description() string { return t.description }
func (t *Task) Date() int64         { return t.date }

func (t *Task) SetID(v int64) {
	if t.id != v {
		t.id = v
		t.notify(FieldID)
	}
}

func (t *Task) SetName(v string) {
	if t.name != v {
		t.name = v
		t.notify(FieldName)
	}
}

func (t *Task) SetDone(v bool) {
	if t.done != v {
		t.done = v
		t.notify(FieldDone)
	}
}

func (t *Task) SetProject(v int64) {
	if t.project != v {
		t.project = v
		t.notify(FieldProject)
	}
}

func (t *Task) SetSection(v int64) {
	if t.section != v {
		t.section = v
		t.notify(FieldSection)
	}
}

func (t *Task) SetPosition(v int32) {
	if t.position != v {
		t.position = v
		t.notify(FieldPosition)
	}
}

func (t *Task) SetSuspended(v bool) {
	if t.suspended != v {
		t.suspended = v
		t.notify(FieldSuspended)
	}
}

func (t *Task) SetParent(v int64) {
	if t.parent != v {
		t.parent = v
		t.notify(FieldParent)
	}
}

func (t *Task) SetDescription(v string) {
	if t.description != v {
		t.description = v
		t.notify(FieldDescription)
	}
}

func (t *Task) SetDate(v int64) {
	if t.date != v {
		t.date = v
		t.notify(FieldDate)
	}
}

// SetFields applies a partial mapping through the setters. Values are checked
// before anything is written, so a bad mapping leaves the task untouched.
func (t *Task) SetFields(fields Fields) error {
	var staged Task
	staged.copyValues(t)
	for _, name := range TaskFields {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := staged.assign(name, value); err != nil {
			return err
		}
	}
	var unknown []string
	for name := range fields {
		if _, ok := staged.Value(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &DecodeError{Field: unknown[0], Reason: "unknown field"}
	}

	t.SetID(staged.id)
	t.SetName(staged.name)
	t.SetDone(staged.done)
	t.SetProject(staged.project)
	t.SetSection(staged.section)
	t.SetPosition(staged.position)
	t.SetSuspended(staged.suspended)
	t.SetParent(staged.parent)
	t.SetDescription(staged.description)
	t.SetDate(staged.date)
	return nil
}

// Value returns a field by name
func (t *Task) Value(field string) (any, bool) {
	switch field {
	case FieldID:
		return t.id, true
	case FieldName:
		return t.name, true
	case FieldDone:
		return t.done, true
	case FieldProject:
		return t.project, true
	case FieldSection:
		return t.section, true
	case FieldPosition:
		return t.position, true
	case FieldSuspended:
		return t.suspended, true
	case FieldParent:
		return t.parent, true
	case FieldDescription:
		return t.description, true
	case FieldDate:
		return t.date, true
	}
	return nil, false
}

// Values returns all ten fields in declaration order
func (t *Task) Values() []any {
	out := make([]any, 0, len(TaskFields))
	for _, f := range TaskFields {
		v, _ := t.Value(f)
		out = append(out, v)
	}
	return out
}

// OnChange registers fn to be called after any setter changes a value. The
// returned handle removes it again via RemoveOnChange.
func (t *Task) OnChange(fn ChangeFunc) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.observers == nil {
		t.observers = make(map[uuid.UUID]ChangeFunc)
	}
	id := uuid.New()
	t.observers[id] = fn
	return id
}

// RemoveOnChange drops a callback registered with OnChange
func (t *Task) RemoveOnChange(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.observers, id)
}

func (t *Task) notify(field string) {
	t.mu.Lock()
	fns := make([]ChangeFunc, 0, len(t.observers))
	for _, fn := range t.observers {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(t, field)
	}
}

// DifferentProperties returns the names of the fields whose values differ
// between t and other, in declaration order
func (t *Task) DifferentProperties(other *Task) []string {
	props := []string{}
	if t.id != other.id {
		props = append(props, FieldID)
	}
	if t.name != other.name {
		props = append(props, FieldName)
	}
	if t.done != other.done {
		props = append(props, FieldDone)
	}
	if t.project != other.project {
		props = append(props, FieldProject)
	}
	if t.section != other.section {
		props = append(props, FieldSection)
	}
	if t.position != other.position {
		props = append(props, FieldPosition)
	}
	if t.suspended != other.suspended {
		props = append(props, FieldSuspended)
	}
	if t.parent != other.parent {
		props = append(props, FieldParent)
	}
	if t.description != other.description {
		props = append(props, FieldDescription)
	}
	if t.date != other.date {
		props = append(props, FieldDate)
	}
	return props
}

// Equal reports whether every field matches
func (t *Task) Equal(other *Task) bool {
	return len(t.DifferentProperties(other)) == 0
}

// Duplicate returns a detached copy with the same field values, id included.
// Observers are not copied. Call DetachIdentity on the copy before inserting
// it as a new row.
func (t *Task) Duplicate() *Task {
	d := &Task{}
	d.copyValues(t)
	return d
}

// DetachIdentity clears the id so the task is treated as not yet persisted
func (t *Task) DetachIdentity() {
	t.SetID(0)
}

// DateTime returns the task date in loc, or false when no date is set
func (t *Task) DateTime(loc *time.Location) (time.Time, bool) {
	if t.date == 0 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(t.date, 0).In(loc), true
}

func (t *Task) String() string {
	return fmt.Sprintf(
		"Task { id: %d name: %s done: %t project: %d section: %d position: %d suspended: %t parent: %d description: %s date: %d }",
		t.id, t.name, t.done, t.project, t.section, t.position, t.suspended, t.parent, t.description, t.date,
	)
}

func (t *Task) copyValues(src *Task) {
	t.id = src.id
	t.name = src.name
	t.done = src.done
	t.project = src.project
	t.section = src.section
	t.position = src.position
	t.suspended = src.suspended
	t.parent = src.parent
	t.description = src.description
	t.date = src.date
}

// assign stores one field without notifying
func (t *Task) assign(field string, value any) error {
	var err error
	switch field {
	case FieldID:
		t.id, err = asInt64(field, value)
	case FieldName:
		t.name, err = asString(field, value)
	case FieldDone:
		t.done, err = asBool(field, value)
	case FieldProject:
		t.project, err = asInt64(field, value)
	case FieldSection:
		t.section, err = asInt64(field, value)
	case FieldPosition:
		t.position, err = asInt32(field, value)
	case FieldSuspended:
		t.suspended, err = asBool(field, value)
	case FieldParent:
		t.parent, err = asInt64(field, value)
	case FieldDescription:
		t.description, err = asString(field, value)
	case FieldDate:
		t.date, err = asInt64(field, value)
	default:
		err = &DecodeError{Field: field, Reason: "unknown field"}
	}
	return err
}
