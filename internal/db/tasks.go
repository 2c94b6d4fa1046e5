package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/timing"
)

const taskColumns = `id, name, done, project, section, position, suspended, parent, description, date`

// ReadTasks returns the tasks matching q ordered by position
func (db *DB) ReadTasks(ctx context.Context, q timing.TaskQuery) ([]*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	args := []any{}

	if q.Project != nil {
		query += " AND project = ?"
		args = append(args, *q.Project)
	}
	if q.Section != nil {
		query += " AND section = ?"
		args = append(args, *q.Section)
	}
	if q.Position != nil {
		query += " AND position = ?"
		args = append(args, *q.Position)
	}
	if q.Parent != nil {
		query += " AND parent = ?"
		args = append(args, *q.Parent)
	}
	if q.Date != nil {
		query += " AND date = ?"
		args = append(args, *q.Date)
	}
	if !q.IncludeDone {
		query += " AND done = ?"
		args = append(args, false)
	}
	query += " ORDER BY position ASC, id ASC"

	return db.queryTasks(ctx, query, args...)
}

// GetTask retrieves a task by id
func (db *DB) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	tasks, err := db.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return tasks[0], nil
}

// queryTasks decodes rows by column name so a reordered SELECT cannot
// silently shift values between fields
func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]*model.Task, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var tasks []*model.Task
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		row := make(model.Row, len(columns))
		for i, name := range columns {
			row[name] = values[i]
		}
		t, err := model.TaskFromRow(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts t and assigns its new id. Tasks that already carry an id
// are rejected; a duplicate must be detached first.
func (db *DB) CreateTask(ctx context.Context, t *model.Task) error {
	if t.ID() != 0 {
		return fmt.Errorf("create task %d: %w", t.ID(), ErrPersisted)
	}

	var id int64
	err := db.QueryRowContext(ctx, db.rebind(`
		INSERT INTO tasks (name, done, project, section, position, suspended, parent, description, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		t.Name(), t.Done(), t.Project(), t.Section(), t.Position(), t.Suspended(), t.Parent(), t.Description(), t.Date(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	t.SetID(id)
	logger.Info("Task created", logger.F("task_id", id), logger.F("parent", t.Parent()))
	return nil
}

// UpdateTask writes t over the stored row and returns the fields that changed
func (db *DB) UpdateTask(ctx context.Context, t *model.Task) ([]string, error) {
	stored, err := db.GetTask(ctx, t.ID())
	if err != nil {
		return nil, err
	}

	changed := stored.DifferentProperties(t)
	if len(changed) == 0 {
		return changed, nil
	}

	_, err = db.ExecContext(ctx, db.rebind(`
		UPDATE tasks
		SET name = ?, done = ?, project = ?, section = ?, position = ?, suspended = ?, parent = ?, description = ?, date = ?
		WHERE id = ?`),
		t.Name(), t.Done(), t.Project(), t.Section(), t.Position(), t.Suspended(), t.Parent(), t.Description(), t.Date(), t.ID(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	logger.Info("Task updated", logger.F("task_id", t.ID()), logger.F("changed", changed))
	return changed, nil
}

// DeleteTask removes a task and its records. Its subtasks become top-level.
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	if _, err := db.GetTask(ctx, id); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`UPDATE tasks SET parent = 0 WHERE parent = ?`,
		`DELETE FROM records WHERE task = ?`,
		`DELETE FROM tasks WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, db.rebind(stmt), id); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Info("Task deleted", logger.F("task_id", id))
	return nil
}

// NextPosition returns the position after the last task in the given scope
func (db *DB) NextPosition(ctx context.Context, project, section, parent int64) (int32, error) {
	var pos sql.NullInt64
	err := db.QueryRowContext(ctx, db.rebind(`
		SELECT MAX(position) FROM tasks WHERE project = ? AND section = ? AND parent = ?`),
		project, section, parent,
	).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("failed to read positions: %w", err)
	}
	if !pos.Valid {
		return 0, nil
	}
	return int32(pos.Int64) + 1, nil
}

// Subtree returns the task followed by all of its descendants, breadth first
func (db *DB) Subtree(ctx context.Context, id int64) ([]*model.Task, error) {
	root, err := db.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	out := []*model.Task{root}
	seen := map[int64]bool{id: true}
	for i := 0; i < len(out); i++ {
		parent := out[i].ID()
		children, err := db.ReadTasks(ctx, timing.TaskQuery{Parent: &parent, IncludeDone: true})
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if seen[c.ID()] {
				continue
			}
			seen[c.ID()] = true
			out = append(out, c)
		}
	}
	return out, nil
}
