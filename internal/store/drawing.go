package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Drawing is a saved canvas.
type Drawing struct {
	ID      string
	Name    string
	Width   int
	Height  int
	Strokes int
	SVG     string
	// Paths is the JSON-encoded path list. Empty for drawings saved
	// before it was recorded.
	Paths     string
	CreatedAt time.Time
}

// DrawingRepository provides CRUD operations for saved drawings.
type DrawingRepository struct {
	db *sql.DB
}

// Drawings returns the drawing repository for this store.
func (s *Store) Drawings() *DrawingRepository {
	return &DrawingRepository{db: s.db}
}

// Create inserts a drawing. An empty ID is filled with a new UUID.
func (r *DrawingRepository) Create(d *Drawing) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO drawings (id, name, width, height, strokes, svg, paths, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Width, d.Height, d.Strokes, d.SVG, d.Paths, d.CreatedAt,
	)
	return err
}

// GetByID retrieves a drawing, including its SVG body and path list.
func (r *DrawingRepository) GetByID(id string) (*Drawing, error) {
	d := &Drawing{}

	err := r.db.QueryRow(
		`SELECT id, name, width, height, strokes, svg, paths, created_at
		 FROM drawings WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.Name, &d.Width, &d.Height, &d.Strokes, &d.SVG, &d.Paths, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return d, nil
}

// List returns all drawings, newest first, without their SVG bodies.
func (r *DrawingRepository) List() ([]*Drawing, error) {
	rows, err := r.db.Query(
		`SELECT id, name, width, height, strokes, created_at
		 FROM drawings ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drawings []*Drawing
	for rows.Next() {
		d := &Drawing{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Width, &d.Height, &d.Strokes, &d.CreatedAt); err != nil {
			return nil, err
		}
		drawings = append(drawings, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return drawings, nil
}

// Delete removes a drawing by its ID.
func (r *DrawingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM drawings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
