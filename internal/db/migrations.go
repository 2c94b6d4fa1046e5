package db

import (
	"fmt"
	"strings"

	"github.com/existflow/irontrack/internal/model"
)

// migrate runs all database migrations for the open dialect
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateProjects,
		migrationCreateSections,
		migrationCreateTasks,
		migrationCreateRecords,
	}
	for i, m := range migrations {
		if _, err := db.Exec(db.dialect(m)); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	inbox := model.DefaultInboxProject()
	if _, err := db.Exec(db.rebind(migrationInsertInbox), inbox.ID, inbox.Name, inbox.Color); err != nil {
		return fmt.Errorf("failed to seed inbox: %w", err)
	}
	if db.driver == DriverPostgres {
		if _, err := db.Exec(migrationSyncProjectSequence); err != nil {
			return fmt.Errorf("failed to sync project sequence: %w", err)
		}
	}

	return nil
}

// dialect fills in the auto-increment key type
func (db *DB) dialect(ddl string) string {
	if !strings.Contains(ddl, "%s") {
		return ddl
	}
	key := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == DriverPostgres {
		key = "BIGSERIAL PRIMARY KEY"
	}
	return fmt.Sprintf(ddl, key)
}

const migrationCreateProjects = `
CREATE TABLE IF NOT EXISTS projects (
    id %s,
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '#4ECDC4',
    archived BOOLEAN NOT NULL DEFAULT FALSE,
    idx INTEGER NOT NULL DEFAULT 0
);
`

const migrationCreateSections = `
CREATE TABLE IF NOT EXISTS sections (
    id %s,
    name TEXT NOT NULL,
    project BIGINT NOT NULL,
    idx INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sections_project ON sections(project);
`

const migrationCreateTasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id %s,
    name TEXT NOT NULL DEFAULT '',
    done BOOLEAN NOT NULL DEFAULT FALSE,
    project BIGINT NOT NULL DEFAULT 1,
    section BIGINT NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0,
    suspended BOOLEAN NOT NULL DEFAULT FALSE,
    parent BIGINT NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    date BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project, section);
`

const migrationCreateRecords = `
CREATE TABLE IF NOT EXISTS records (
    id %s,
    name TEXT NOT NULL DEFAULT '',
    task BIGINT NOT NULL,
    start BIGINT NOT NULL,
    duration BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_records_task ON records(task, duration);
`

const migrationInsertInbox = `
INSERT INTO projects (id, name, color) VALUES (?, ?, ?)
ON CONFLICT (id) DO NOTHING;
`

const migrationSyncProjectSequence = `
SELECT setval(pg_get_serial_sequence('projects', 'id'), (SELECT MAX(id) FROM projects));
`
