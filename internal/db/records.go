package db

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/timing"
)

const recordColumns = `id, name, task, start, duration`

// ReadRecords returns records ordered by start. Running records (duration 0)
// are returned only with IncompleteOnly, finished ones only without it.
func (db *DB) ReadRecords(ctx context.Context, q timing.RecordQuery) ([]*model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE 1=1`
	args := []any{}

	if q.Task != nil {
		query += " AND task = ?"
		args = append(args, *q.Task)
	}
	if q.IncompleteOnly {
		query += " AND duration = 0"
	} else {
		query += " AND duration <> 0"
	}
	query += " ORDER BY start ASC, id ASC"
	query += db.paginate(&args, q.Limit, q.Offset)

	return db.queryRecords(ctx, query, args...)
}

// ListRecords returns every record of a task, running or not
func (db *DB) ListRecords(ctx context.Context, taskID int64) ([]*model.Record, error) {
	return db.queryRecords(ctx, `SELECT `+recordColumns+` FROM records WHERE task = ? ORDER BY start ASC, id ASC`, taskID)
}

func (db *DB) queryRecords(ctx context.Context, query string, args ...any) ([]*model.Record, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		r := &model.Record{}
		if err := rows.Scan(&r.ID, &r.Name, &r.Task, &r.StartAt, &r.Seconds); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// AddRecord stores a finished interval
func (db *DB) AddRecord(ctx context.Context, r *model.Record) error {
	if r.Seconds <= 0 {
		return fmt.Errorf("record duration must be positive, got %d", r.Seconds)
	}
	if _, err := db.GetTask(ctx, r.Task); err != nil {
		return err
	}
	return db.insertRecord(ctx, r)
}

// StartRecord opens a new interval on the task. A task never has more than
// one running record.
func (db *DB) StartRecord(ctx context.Context, taskID int64, name string, at time.Time) (*model.Record, error) {
	if _, err := db.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	running, err := db.ReadRecords(ctx, timing.RecordQuery{Task: &taskID, IncompleteOnly: true})
	if err != nil {
		return nil, err
	}
	if len(running) > 0 {
		return nil, fmt.Errorf("task %d: %w", taskID, ErrRecordRunning)
	}

	r := &model.Record{Name: name, Task: taskID, StartAt: at.Unix()}
	if err := db.insertRecord(ctx, r); err != nil {
		return nil, err
	}
	logger.Info("Record started", logger.F("task_id", taskID), logger.F("record_id", r.ID))
	return r, nil
}

// StopRecord finishes the running interval of the task. The stored duration
// is at least one second so the record never reads as running again.
func (db *DB) StopRecord(ctx context.Context, taskID int64, at time.Time) (*model.Record, error) {
	running, err := db.ReadRecords(ctx, timing.RecordQuery{Task: &taskID, IncompleteOnly: true})
	if err != nil {
		return nil, err
	}
	if len(running) == 0 {
		return nil, fmt.Errorf("task %d: %w", taskID, ErrNotRunning)
	}

	r := running[0]
	r.SetDuration(max(at.Unix()-r.Start(), 1))
	if _, err := db.ExecContext(ctx, db.rebind(`UPDATE records SET duration = ? WHERE id = ?`), r.Seconds, r.ID); err != nil {
		return nil, fmt.Errorf("failed to stop record: %w", err)
	}
	logger.Info("Record stopped", logger.F("task_id", taskID), logger.F("record_id", r.ID), logger.F("seconds", r.Seconds))
	return r, nil
}

func (db *DB) insertRecord(ctx context.Context, r *model.Record) error {
	err := db.QueryRowContext(ctx, db.rebind(`
		INSERT INTO records (name, task, start, duration) VALUES (?, ?, ?, ?) RETURNING id`),
		r.Name, r.Task, r.StartAt, r.Seconds,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}
