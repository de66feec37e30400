package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/condoflow/be-approval-levels/internal/database"
	"github.com/condoflow/be-approval-levels/internal/errors"
)

// LevelAuditRepository appends and reads immutable level-change audit entries.
// Deleted levels keep their trail; only appends are exposed.
type LevelAuditRepository struct {
	db *database.DB
}

// NewLevelAuditRepository creates a new LevelAuditRepository.
func NewLevelAuditRepository(db *database.DB) *LevelAuditRepository {
	return &LevelAuditRepository{db: db}
}

// Append inserts one audit entry.
func (r *LevelAuditRepository) Append(ctx context.Context, entry *LevelAuditEntry) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal audit metadata")
		}
	}

	query := `
		INSERT INTO approval_level_audit_log
		    (client_id, level_id, action, performed_by, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, performed_at
	`

	err := r.db.QueryRow(ctx, query,
		entry.ClientID,
		entry.LevelID,
		entry.Action,
		entry.PerformedBy,
		metadataJSON,
	).Scan(&entry.ID, &entry.PerformedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "failed to append audit entry")
	}
	return nil
}

// ListByClient returns a tenant's audit trail oldest-first, optionally
// narrowed to one level.
func (r *LevelAuditRepository) ListByClient(ctx context.Context, clientID string, levelID *string) ([]*LevelAuditEntry, error) {
	query := `
		SELECT id, client_id, level_id, action, performed_by, performed_at, metadata
		FROM approval_level_audit_log
		WHERE client_id = $1
	`
	args := []interface{}{clientID}

	if levelID != nil {
		query += " AND level_id = $2"
		args = append(args, *levelID)
	}
	query += " ORDER BY performed_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to list audit entries")
	}
	defer rows.Close()

	return scanAuditRows(rows)
}

// ── scan helpers ─────────────────────────────────────────────────────────────

func scanAuditRows(rows pgx.Rows) ([]*LevelAuditEntry, error) {
	entries := make([]*LevelAuditEntry, 0)
	for rows.Next() {
		entry := &LevelAuditEntry{}
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.ClientID,
			&entry.LevelID,
			&entry.Action,
			&entry.PerformedBy,
			&entry.PerformedAt,
			&metadataJSON,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan audit entry")
		}

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal audit metadata")
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
