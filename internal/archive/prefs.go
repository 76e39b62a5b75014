package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Preference keys used by the studio shell. Arbitrary keys are allowed;
// these are the ones the application reads at startup.
const (
	PrefLastProject = "last_project"
	PrefPanelPrefix = "panel." // panel.<name> holds a pixel width
)

// SetPreference stores a UI preference, replacing any existing value.
func (a *Archive) SetPreference(ctx context.Context, key, value string) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// GetPreference returns a stored preference value.
func (a *Archive) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := a.db.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("preference %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, nil
}

// Preferences returns all stored preferences keyed by name.
func (a *Archive) Preferences(ctx context.Context) (map[string]string, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT key, value FROM preferences ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan preference row: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preference rows: %w", err)
	}
	return out, nil
}

// DeletePreference removes a stored preference. Deleting an absent key is
// not an error.
func (a *Archive) DeletePreference(ctx context.Context, key string) error {
	_, err := a.db.ExecContext(ctx, "DELETE FROM preferences WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete preference %s: %w", key, err)
	}
	return nil
}
