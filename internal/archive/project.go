package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calliope-studio/calliope/internal/entity"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SaveProject persists a complete project bundle in one transaction.
// Entity rows are replaced wholesale: the archive reflects the bundle
// exactly, including deletions. savedSeq records the logical clock
// position at save time so callers can tell a stale archive from a
// current one.
func (a *Archive) SaveProject(ctx context.Context, b entity.Bundle, savedSeq int64) error {
	if b.Project.ID == "" {
		return fmt.Errorf("save project: missing project id")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, parent_id, parent_fingerprint,
			created_at_ms, selected_shot_id, saved_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			parent_id = excluded.parent_id,
			parent_fingerprint = excluded.parent_fingerprint,
			created_at_ms = excluded.created_at_ms,
			selected_shot_id = excluded.selected_shot_id,
			saved_seq = excluded.saved_seq
	`, b.Project.ID, b.Project.Name, b.Project.Description, b.Project.ParentID,
		b.Project.ParentFingerprint, b.Project.CreatedAtMs, b.SelectedShotID, savedSeq)
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", b.Project.ID, err)
	}

	for _, table := range []string{"shots", "assets", "characters", "worlds", "stories"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE project_id = ?", table), b.Project.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, s := range b.Shots {
		doc, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal shot %s: %w", s.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO shots (project_id, id, position, title, duration_ms, doc)
			VALUES (?, ?, ?, ?, ?, ?)
		`, b.Project.ID, s.ID, s.Position, s.Title, s.DurationMs, string(doc))
		if err != nil {
			return fmt.Errorf("insert shot %s: %w", s.ID, err)
		}
	}

	for _, as := range b.Assets {
		doc, err := json.Marshal(as)
		if err != nil {
			return fmt.Errorf("marshal asset %s: %w", as.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO assets (project_id, id, kind, name, doc)
			VALUES (?, ?, ?, ?, ?)
		`, b.Project.ID, as.ID, as.Kind, as.Name, string(doc))
		if err != nil {
			return fmt.Errorf("insert asset %s: %w", as.ID, err)
		}
	}

	for _, c := range b.Characters {
		doc, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal character %s: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO characters (project_id, id, name, role, doc)
			VALUES (?, ?, ?, ?, ?)
		`, b.Project.ID, c.ID, c.Name, c.Role, string(doc))
		if err != nil {
			return fmt.Errorf("insert character %s: %w", c.ID, err)
		}
	}

	for _, w := range b.Worlds {
		doc, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("marshal world %s: %w", w.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO worlds (project_id, id, name, doc)
			VALUES (?, ?, ?, ?)
		`, b.Project.ID, w.ID, w.Name, string(doc))
		if err != nil {
			return fmt.Errorf("insert world %s: %w", w.ID, err)
		}
	}

	for _, st := range b.Stories {
		doc, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal story %s: %w", st.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stories (project_id, id, title, doc)
			VALUES (?, ?, ?, ?)
		`, b.Project.ID, st.ID, st.Title, string(doc))
		if err != nil {
			return fmt.Errorf("insert story %s: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadProject reads a complete project bundle. Shots come back in timeline
// order; the other collections are ordered by id so loads are deterministic.
func (a *Archive) LoadProject(ctx context.Context, projectID string) (entity.Bundle, error) {
	var b entity.Bundle

	row := a.db.QueryRowContext(ctx, `
		SELECT id, name, description, parent_id, parent_fingerprint,
			created_at_ms, selected_shot_id
		FROM projects WHERE id = ?
	`, projectID)
	err := row.Scan(&b.Project.ID, &b.Project.Name, &b.Project.Description,
		&b.Project.ParentID, &b.Project.ParentFingerprint,
		&b.Project.CreatedAtMs, &b.SelectedShotID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Bundle{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return entity.Bundle{}, fmt.Errorf("load project %s: %w", projectID, err)
	}

	if b.Shots, err = loadDocs[entity.Shot](ctx, a.db, projectID,
		"SELECT doc FROM shots WHERE project_id = ? ORDER BY position"); err != nil {
		return entity.Bundle{}, err
	}
	if b.Assets, err = loadDocs[entity.Asset](ctx, a.db, projectID,
		"SELECT doc FROM assets WHERE project_id = ? ORDER BY id"); err != nil {
		return entity.Bundle{}, err
	}
	if b.Characters, err = loadDocs[entity.Character](ctx, a.db, projectID,
		"SELECT doc FROM characters WHERE project_id = ? ORDER BY id"); err != nil {
		return entity.Bundle{}, err
	}
	if b.Worlds, err = loadDocs[entity.World](ctx, a.db, projectID,
		"SELECT doc FROM worlds WHERE project_id = ? ORDER BY id"); err != nil {
		return entity.Bundle{}, err
	}
	if b.Stories, err = loadDocs[entity.Story](ctx, a.db, projectID,
		"SELECT doc FROM stories WHERE project_id = ? ORDER BY id"); err != nil {
		return entity.Bundle{}, err
	}

	return b, nil
}

// loadDocs reads the doc column of an entity table and unmarshals each row.
func loadDocs[T any](ctx context.Context, db *sql.DB, projectID, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}
		var v T
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			return nil, fmt.Errorf("unmarshal entity doc: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity rows: %w", err)
	}
	return out, nil
}

// SavedSeq returns the logical clock position recorded at the last save.
func (a *Archive) SavedSeq(ctx context.Context, projectID string) (int64, error) {
	var seq int64
	err := a.db.QueryRowContext(ctx,
		"SELECT saved_seq FROM projects WHERE id = ?", projectID).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("saved seq for %s: %w", projectID, err)
	}
	return seq, nil
}

// ListProjects returns all project records ordered by creation time, newest
// first, with id as a tiebreaker.
func (a *Archive) ListProjects(ctx context.Context) ([]entity.Project, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, name, description, parent_id, parent_fingerprint, created_at_ms
		FROM projects
		ORDER BY created_at_ms DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []entity.Project
	for rows.Next() {
		var p entity.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description,
			&p.ParentID, &p.ParentFingerprint, &p.CreatedAtMs); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project rows: %w", err)
	}
	return out, nil
}

// DeleteProject removes a project and all of its entity rows. Foreign keys
// cascade the entity tables; version log rows are kept so lineage queries
// keep working after a branch parent is deleted.
func (a *Archive) DeleteProject(ctx context.Context, projectID string) error {
	res, err := a.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", projectID)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}
