package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/existflow/irontrack/internal/model"
)

// CreateProject inserts p and assigns its id
func (db *DB) CreateProject(ctx context.Context, p *model.Project) error {
	err := db.QueryRowContext(ctx, db.rebind(`
		INSERT INTO projects (name, color, archived, idx) VALUES (?, ?, ?, ?) RETURNING id`),
		p.Name, p.Color, p.Archived, p.Index,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by id
func (db *DB) GetProject(ctx context.Context, id int64) (model.Project, error) {
	var p model.Project
	err := db.QueryRowContext(ctx, db.rebind(`
		SELECT id, name, color, archived, idx FROM projects WHERE id = ?`), id,
	).Scan(&p.ID, &p.Name, &p.Color, &p.Archived, &p.Index)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects ordered by index
func (db *DB) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, color, archived, idx FROM projects ORDER BY idx ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &p.Archived, &p.Index); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateSection inserts s and assigns its id
func (db *DB) CreateSection(ctx context.Context, s *model.Section) error {
	if _, err := db.GetProject(ctx, s.Project); err != nil {
		return err
	}
	err := db.QueryRowContext(ctx, db.rebind(`
		INSERT INTO sections (name, project, idx) VALUES (?, ?, ?) RETURNING id`),
		s.Name, s.Project, s.Index,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}
	return nil
}

// ListSections returns the sections of a project ordered by index
func (db *DB) ListSections(ctx context.Context, project int64) ([]model.Section, error) {
	rows, err := db.QueryContext(ctx, db.rebind(`
		SELECT id, name, project, idx FROM sections WHERE project = ? ORDER BY idx ASC, id ASC`), project)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.Project, &s.Index); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}
