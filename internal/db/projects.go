package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"building-atlas/internal/models"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Project is a saved dashboard view: a named set of attribute filters.
type Project struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Filters   []models.Filter `json:"filters"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type projectRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Filters   string    `db:"filters"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SaveProject inserts or updates a project. A missing id means a new
// project; one is generated.
func (db *DB) SaveProject(p *Project) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	filters, err := json.Marshal(p.Filters)
	if err != nil {
		return fmt.Errorf("encoding project filters: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO projects (id, name, filters, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			filters = excluded.filters,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, string(filters), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving project %s: %w", p.ID, err)
	}
	return nil
}

// GetProject returns one project by id.
func (db *DB) GetProject(id string) (*Project, error) {
	var row projectRow
	err := db.Get(&row, "SELECT id, name, filters, created_at, updated_at FROM projects WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	return row.toProject()
}

// ListProjects returns all saved projects, newest first.
func (db *DB) ListProjects() ([]Project, error) {
	var rows []projectRow
	err := db.Select(&rows, "SELECT id, name, filters, created_at, updated_at FROM projects ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	projects := make([]Project, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toProject()
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

// DeleteProject removes a project by id.
func (db *DB) DeleteProject(id string) error {
	res, err := db.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (row *projectRow) toProject() (*Project, error) {
	p := &Project{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.Filters), &p.Filters); err != nil {
		return nil, fmt.Errorf("decoding filters for project %s: %w", row.ID, err)
	}
	return p, nil
}
