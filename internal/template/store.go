// Package template provides the storage collaborator for reusable field
// templates. The fill pipeline only ever reads templates; authoring
// flows create and delete them through the same store.
package template

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docbuddy/docfill/internal/field"
)

// ErrNotFound is returned when no template exists for the given id.
var ErrNotFound = errors.New("template not found")

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	fields      TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);
`

// Store is a SQLite-backed template store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (and if necessary creates) the template database at
// dbPath. Parent directories are created as needed.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("template database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating template data directory: %w", err)
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening template database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating templates table: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Create validates and persists a new template, assigning its id and
// creation timestamp. Template fields are stored position-free; any
// position or page on the input is discarded.
func (s *Store) Create(ctx context.Context, name, description string, fields []field.Field) (*field.Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("template name cannot be empty")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("template must declare at least one field")
	}

	seen := make(map[string]struct{}, len(fields))
	stored := make([]field.Field, 0, len(fields))
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("invalid template field: %w", err)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate template field name: %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		f.Position = nil
		f.Page = 0
		stored = append(stored, f)
	}

	tmpl := &field.Template{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Fields:      stored,
	}

	encoded, err := json.Marshal(tmpl.Fields)
	if err != nil {
		return nil, fmt.Errorf("encoding template fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, description, fields, created_at) VALUES (?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.Name, tmpl.Description, string(encoded), tmpl.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting template: %w", err)
	}

	return tmpl, nil
}

// Get returns the template with the given id.
func (s *Store) Get(ctx context.Context, id string) (*field.Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, fields, created_at FROM templates WHERE id = ?`, id)

	tmpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return tmpl, nil
}

// List returns all templates ordered by creation time, newest first.
func (s *Store) List(ctx context.Context) ([]field.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, fields, created_at FROM templates ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var templates []field.Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("reading template row: %w", err)
		}
		templates = append(templates, *tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating templates: %w", err)
	}
	return templates, nil
}

// Delete removes the template with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*field.Template, error) {
	var tmpl field.Template
	var encoded string
	if err := row.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &encoded, &tmpl.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(encoded), &tmpl.Fields); err != nil {
		return nil, fmt.Errorf("decoding template fields: %w", err)
	}
	return &tmpl, nil
}
