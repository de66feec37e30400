package repository

import (
	"context"

	"github.com/condoflow/be-approval-levels/internal/database"
	"github.com/condoflow/be-approval-levels/internal/errors"
)

// ApproverRepository reads the tenant user directory (profiles). The
// directory is owned by the identity platform; this repository never writes.
type ApproverRepository struct {
	db *database.DB
}

// NewApproverRepository creates a new ApproverRepository.
func NewApproverRepository(db *database.DB) *ApproverRepository {
	return &ApproverRepository{db: db}
}

// ListByClient returns the tenant's directory entries, optionally filtered
// by role membership. Empty roles means no role filter.
func (r *ApproverRepository) ListByClient(ctx context.Context, clientID string, roles []string) ([]*Approver, error) {
	query := `
		SELECT id, client_id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(role, '')
		FROM profiles
		WHERE client_id = $1
	`
	args := []interface{}{clientID}

	if len(roles) > 0 {
		query += " AND role = ANY($2)"
		args = append(args, roles)
	}
	query += " ORDER BY name ASC, email ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to list approvers")
	}
	defer rows.Close()

	approvers := make([]*Approver, 0)
	for rows.Next() {
		a := &Approver{}
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Name, &a.Email, &a.Role); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approver")
		}
		approvers = append(approvers, a)
	}
	return approvers, nil
}

// GetByIDs returns the directory entries for a set of approver ids within a
// tenant. Unknown ids are simply absent from the result.
func (r *ApproverRepository) GetByIDs(ctx context.Context, clientID string, ids []string) ([]*Approver, error) {
	if len(ids) == 0 {
		return []*Approver{}, nil
	}

	query := `
		SELECT id, client_id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(role, '')
		FROM profiles
		WHERE client_id = $1 AND id = ANY($2)
	`

	rows, err := r.db.Query(ctx, query, clientID, ids)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to get approvers")
	}
	defer rows.Close()

	approvers := make([]*Approver, 0, len(ids))
	for rows.Next() {
		a := &Approver{}
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Name, &a.Email, &a.Role); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approver")
		}
		approvers = append(approvers, a)
	}
	return approvers, nil
}
