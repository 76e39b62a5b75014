package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/calliope-studio/calliope/internal/canon"
)

// versionRetention bounds the version log per entity. Appending past the
// bound drops the oldest rows.
const versionRetention = 20

// Version is one recorded generation of an entity.
type Version struct {
	EntityKind  string `json:"entity_kind"`
	EntityID    string `json:"entity_id"`
	Seq         int64  `json:"seq"`
	Label       string `json:"label,omitempty"`
	Payload     string `json:"payload"`
	Fingerprint string `json:"fingerprint"`
}

// AppendVersion records a new generation of an entity. The payload is the
// entity's canonical JSON document, fingerprinted under the version domain.
// Seq is assigned monotonically per (kind, id); older rows past the
// retention bound are dropped in the same transaction.
func (a *Archive) AppendVersion(ctx context.Context, kind, id, label string, doc map[string]any) (Version, error) {
	payload, err := canon.Marshal(doc)
	if err != nil {
		return Version{}, fmt.Errorf("canonicalize version payload: %w", err)
	}
	fp, err := canon.Fingerprint(canon.DomainVersion, doc)
	if err != nil {
		return Version{}, err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return Version{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM versions
		WHERE entity_kind = ? AND entity_id = ?
	`, kind, id).Scan(&seq)
	if err != nil {
		return Version{}, fmt.Errorf("next version seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO versions (entity_kind, entity_id, seq, label, payload, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?)
	`, kind, id, seq, label, string(payload), fp)
	if err != nil {
		return Version{}, fmt.Errorf("insert version %s/%s seq %d: %w", kind, id, seq, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM versions
		WHERE entity_kind = ? AND entity_id = ? AND seq <= ? - ?
	`, kind, id, seq, versionRetention)
	if err != nil {
		return Version{}, fmt.Errorf("trim versions %s/%s: %w", kind, id, err)
	}

	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit transaction: %w", err)
	}

	return Version{
		EntityKind:  kind,
		EntityID:    id,
		Seq:         seq,
		Label:       label,
		Payload:     string(payload),
		Fingerprint: fp,
	}, nil
}

// ListVersions returns the retained generations of an entity in seq order,
// oldest first.
func (a *Archive) ListVersions(ctx context.Context, kind, id string) ([]Version, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT entity_kind, entity_id, seq, label, payload, fingerprint
		FROM versions
		WHERE entity_kind = ? AND entity_id = ?
		ORDER BY seq
	`, kind, id)
	if err != nil {
		return nil, fmt.Errorf("list versions %s/%s: %w", kind, id, err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.EntityKind, &v.EntityID, &v.Seq,
			&v.Label, &v.Payload, &v.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan version row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate version rows: %w", err)
	}
	return out, nil
}

// GetVersion returns a single generation by seq.
func (a *Archive) GetVersion(ctx context.Context, kind, id string, seq int64) (Version, error) {
	var v Version
	err := a.db.QueryRowContext(ctx, `
		SELECT entity_kind, entity_id, seq, label, payload, fingerprint
		FROM versions
		WHERE entity_kind = ? AND entity_id = ? AND seq = ?
	`, kind, id, seq).Scan(&v.EntityKind, &v.EntityID, &v.Seq,
		&v.Label, &v.Payload, &v.Fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("version %s/%s seq %d: %w", kind, id, seq, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get version %s/%s seq %d: %w", kind, id, seq, err)
	}
	return v, nil
}
