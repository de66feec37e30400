package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/condoflow/be-approval-levels/internal/database"
	"github.com/condoflow/be-approval-levels/internal/errors"
)

const levelColumns = `id, client_id, name, order_level,
	       amount_threshold, max_amount_threshold,
	       approvers, active, created_at, updated_at`

// ApprovalLevelRepository handles CRUD for approval_levels.
type ApprovalLevelRepository struct {
	db *database.DB
}

// NewApprovalLevelRepository creates a new ApprovalLevelRepository.
func NewApprovalLevelRepository(db *database.DB) *ApprovalLevelRepository {
	return &ApprovalLevelRepository{db: db}
}

// Create inserts a new approval level. ID and timestamps are store-assigned.
func (r *ApprovalLevelRepository) Create(ctx context.Context, level *ApprovalLevel) error {
	query := `
		INSERT INTO approval_levels
		    (client_id, name, order_level,
		     amount_threshold, max_amount_threshold,
		     approvers, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		level.ClientID,
		level.Name,
		level.OrderLevel,
		level.AmountThreshold,
		level.MaxAmountThreshold,
		level.Approvers,
		level.Active,
	).Scan(&level.ID, &level.CreatedAt, &level.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "failed to create approval level")
	}
	return nil
}

// GetByID retrieves a level by primary key within a tenant.
func (r *ApprovalLevelRepository) GetByID(ctx context.Context, id, clientID string) (*ApprovalLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM approval_levels
		WHERE id = $1 AND client_id = $2
	`

	level, err := scanLevel(r.db.QueryRow(ctx, query, id, clientID))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("approval_level", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to get approval level")
	}
	return level, nil
}

// List returns all levels for a tenant, active and inactive, ordered by
// order_level ascending. Equal ranks keep insertion order (created_at).
func (r *ApprovalLevelRepository) List(ctx context.Context, clientID string) ([]*ApprovalLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM approval_levels
		WHERE client_id = $1
		ORDER BY order_level ASC, created_at ASC
	`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to list approval levels")
	}
	defer rows.Close()

	levels := make([]*ApprovalLevel, 0)
	for rows.Next() {
		level, err := scanLevel(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approval level")
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// Update applies a partial update and returns the fresh row.
func (r *ApprovalLevelRepository) Update(ctx context.Context, id, clientID string, patch LevelPatch) (*ApprovalLevel, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, clientID}
	argCount := 3

	addSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if patch.Name != nil {
		addSet("name", *patch.Name)
	}
	if patch.OrderLevel != nil {
		addSet("order_level", *patch.OrderLevel)
	}
	if patch.AmountThreshold != nil {
		addSet("amount_threshold", *patch.AmountThreshold)
	}
	if patch.MaxAmountThreshold != nil {
		addSet("max_amount_threshold", *patch.MaxAmountThreshold)
	}
	if patch.Approvers != nil {
		addSet("approvers", *patch.Approvers)
	}
	if patch.Active != nil {
		addSet("active", *patch.Active)
	}

	query := "UPDATE approval_levels SET " + joinSets(sets) + `
		WHERE id = $1 AND client_id = $2
		RETURNING ` + levelColumns

	level, err := scanLevel(r.db.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("approval_level", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to update approval level")
	}
	return level, nil
}

// Delete removes a level. Missing rows surface as NotFound, not success.
func (r *ApprovalLevelRepository) Delete(ctx context.Context, id, clientID string) error {
	query := `
		DELETE FROM approval_levels
		WHERE id = $1 AND client_id = $2
	`

	tag, err := r.db.Exec(ctx, query, id, clientID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "failed to delete approval level")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("approval_level", id)
	}
	return nil
}

// CopyDefaults copies all active levels of parentClientID to targetClientID
// in one transaction. Copies keep name, thresholds and order_level, force
// active = true and reset approvers (approvers are tenant-specific).
// Returns a NoDefaults error when the parent has no active levels.
func (r *ApprovalLevelRepository) CopyDefaults(ctx context.Context, parentClientID, targetClientID string) ([]*ApprovalLevel, error) {
	var copies []*ApprovalLevel

	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			SELECT ` + levelColumns + `
			FROM approval_levels
			WHERE client_id = $1 AND active = TRUE
			ORDER BY order_level ASC, created_at ASC
		`

		rows, err := tx.Query(ctx, query, parentClientID)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeUnavailable, "failed to read parent approval levels")
		}

		var sources []*ApprovalLevel
		for rows.Next() {
			level, err := scanLevel(rows)
			if err != nil {
				rows.Close()
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to scan parent approval level")
			}
			sources = append(sources, level)
		}
		rows.Close()

		if len(sources) == 0 {
			return errors.NoDefaults(parentClientID)
		}

		insert := `
			INSERT INTO approval_levels
			    (client_id, name, order_level,
			     amount_threshold, max_amount_threshold,
			     approvers, active)
			VALUES ($1, $2, $3, $4, $5, '{}', TRUE)
			RETURNING ` + levelColumns

		for _, src := range sources {
			copied, err := scanLevel(tx.QueryRow(ctx, insert,
				targetClientID,
				src.Name,
				src.OrderLevel,
				src.AmountThreshold,
				src.MaxAmountThreshold,
			))
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeUnavailable, "failed to copy approval level")
			}
			copies = append(copies, copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copies, nil
}

// ── scan helpers ─────────────────────────────────────────────────────────────

type levelScanner interface {
	Scan(dest ...any) error
}

func scanLevel(row levelScanner) (*ApprovalLevel, error) {
	level := &ApprovalLevel{}
	err := row.Scan(
		&level.ID,
		&level.ClientID,
		&level.Name,
		&level.OrderLevel,
		&level.AmountThreshold,
		&level.MaxAmountThreshold,
		&level.Approvers,
		&level.Active,
		&level.CreatedAt,
		&level.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return level, nil
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
