package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Setting keys.
const (
	KeyBrushSize     = "brush_size"
	KeyColorIndex    = "color_index"
	KeyCameraVisible = "camera_visible"
)

// SettingsRepository reads and writes key/value preferences.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value for key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetInt returns the integer value for key, or def when it is not set.
func (r *SettingsRepository) GetInt(key string, def int) (int, error) {
	v, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("setting %s: %w", key, err)
	}
	return n, nil
}

// GetBool returns the boolean value for key, or def when it is not set.
func (r *SettingsRepository) GetBool(key string, def bool) (bool, error) {
	v, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("setting %s: %w", key, err)
	}
	return b, nil
}
