package transfer

import (
	"context"
	"errors"

	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/model"
)

// TaskLookup finds stored tasks by id
type TaskLookup interface {
	GetTask(ctx context.Context, id int64) (*model.Task, error)
}

// Compare reports how each task differs from the stored task with the same
// id. Tasks without an id, or with an id the store does not know, are
// reported as unknown.
func Compare(ctx context.Context, store TaskLookup, tasks []*model.Task) ([]Difference, error) {
	out := make([]Difference, 0, len(tasks))
	for _, t := range tasks {
		d := Difference{ID: t.ID(), DifferentProperties: []string{}}
		if t.ID() != 0 {
			stored, err := store.GetTask(ctx, t.ID())
			switch {
			case errors.Is(err, db.ErrNotFound):
			case err != nil:
				return nil, err
			default:
				d.Known = true
				d.DifferentProperties = stored.DifferentProperties(t)
			}
		}
		out = append(out, d)
	}
	return out, nil
}
