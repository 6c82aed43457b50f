package store

import (
	"database/sql"
	"fmt"
)

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Saved drawings: the SVG export plus the JSON path list with
		// per-point colour and size
		`CREATE TABLE IF NOT EXISTS drawings (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			strokes INTEGER NOT NULL DEFAULT 0,
			svg TEXT NOT NULL,
			paths TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Key/value user preferences
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_drawings_created_at ON drawings(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	// Databases created before paths were stored.
	return s.addColumn("drawings", "paths", "TEXT NOT NULL DEFAULT ''")
}

// addColumn adds column to table unless it already exists.
func (s *Store) addColumn(table, column, decl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}
