// Package timing aggregates recorded time over a task tree.
package timing

import (
	"context"
	"time"

	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/model"
)

// RecordQuery selects records. IncompleteOnly picks the running records;
// without it only finished records are returned. A nil Task selects records
// of every task and Limit 0 means no limit.
type RecordQuery struct {
	Task           *int64
	IncompleteOnly bool
	Limit          int
	Offset         int
}

// TaskQuery selects tasks. Nil filters are ignored.
type TaskQuery struct {
	Project     *int64
	Section     *int64
	Position    *int32
	Parent      *int64
	Date        *int64
	IncludeDone bool
}

// Store is the persistence the aggregator reads from
type Store interface {
	ReadRecords(ctx context.Context, q RecordQuery) ([]*model.Record, error)
	ReadTasks(ctx context.Context, q TaskQuery) ([]*model.Task, error)
}

// Aggregator computes task durations. It keeps no cache: every call reads the
// store again, once per node.
type Aggregator struct {
	store Store
	now   func() time.Time
	log   *logger.Logger
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithClock sets the source of the current time
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger; the global logger is used otherwise
func WithLogger(l *logger.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

// New creates an Aggregator over store
func New(store Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store: store,
		now:   time.Now,
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Duration returns the seconds recorded on the task and, recursively, on all
// of its subtasks. Records still running are not counted.
func (a *Aggregator) Duration(ctx context.Context, task *model.Task) (int64, error) {
	total, err := a.duration(ctx, task.ID(), make(map[int64]struct{}))
	if err != nil {
		return 0, err
	}
	a.log.Debug("Task duration", logger.F("task_id", task.ID()), logger.F("seconds", total))
	return total, nil
}

func (a *Aggregator) duration(ctx context.Context, id int64, visited map[int64]struct{}) (int64, error) {
	if _, seen := visited[id]; seen {
		return 0, &CycleError{TaskID: id}
	}
	visited[id] = struct{}{}

	records, err := a.store.ReadRecords(ctx, RecordQuery{Task: &id})
	if err != nil {
		return 0, &StoreError{Op: "read records", TaskID: id, Err: err}
	}

	var total int64
	for _, r := range records {
		if r.Incomplete() {
			continue
		}
		total += r.Duration()
	}

	subtasks, err := a.store.ReadTasks(ctx, TaskQuery{Parent: &id, IncludeDone: true})
	if err != nil {
		return 0, &StoreError{Op: "read subtasks", TaskID: id, Err: err}
	}
	for _, sub := range subtasks {
		d, err := a.duration(ctx, sub.ID(), visited)
		if err != nil {
			return 0, err
		}
		total += d
	}

	return total, nil
}

// IncompleteRecord returns the running record of the task with its duration
// set to the time elapsed since it started, or nil if none is running. The
// returned record is a copy; the stored duration is not touched.
func (a *Aggregator) IncompleteRecord(ctx context.Context, task *model.Task) (*model.Record, error) {
	id := task.ID()
	records, err := a.store.ReadRecords(ctx, RecordQuery{Task: &id, IncompleteOnly: true})
	if err != nil {
		return nil, &StoreError{Op: "read incomplete records", TaskID: id, Err: err}
	}

	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		record := records[0].Copy()
		record.SetDuration(a.now().Unix() - record.Start())
		return record, nil
	default:
		a.log.Error("Multiple incomplete records", logger.F("task_id", id), logger.F("count", len(records)))
		return nil, &MultipleIncompleteError{TaskID: id, Count: len(records)}
	}
}

// LiveDuration is Duration plus the elapsed time of the running record
func (a *Aggregator) LiveDuration(ctx context.Context, task *model.Task) (int64, error) {
	total, err := a.Duration(ctx, task)
	if err != nil {
		return 0, err
	}
	running, err := a.IncompleteRecord(ctx, task)
	if err != nil {
		return 0, err
	}
	if running != nil && running.Duration() > 0 {
		total += running.Duration()
	}
	return total, nil
}

// DurationDisplay formats Duration as H:MM:SS
func (a *Aggregator) DurationDisplay(ctx context.Context, task *model.Task) (string, error) {
	total, err := a.Duration(ctx, task)
	if err != nil {
		return "", err
	}
	return model.FormatDuration(total), nil
}
