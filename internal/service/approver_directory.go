package service

import (
	"context"

	"github.com/condoflow/be-approval-levels/internal/errors"
	"github.com/condoflow/be-approval-levels/internal/repository"
)

// ApproverStore is the read-only directory surface the service needs.
// Satisfied by repository.ApproverRepository.
type ApproverStore interface {
	ListByClient(ctx context.Context, clientID string, roles []string) ([]*repository.Approver, error)
	GetByIDs(ctx context.Context, clientID string, ids []string) ([]*repository.Approver, error)
}

// ApproverDirectory resolves approver ids to display labels within one
// tenant. Read-only; the directory is owned by the identity platform.
type ApproverDirectory struct {
	approvers ApproverStore
}

// NewApproverDirectory creates a new ApproverDirectory.
func NewApproverDirectory(approvers ApproverStore) *ApproverDirectory {
	return &ApproverDirectory{approvers: approvers}
}

// List returns the tenant's directory entries filtered by role membership.
func (d *ApproverDirectory) List(ctx context.Context, clientID string, roles []string) ([]*repository.Approver, error) {
	if clientID == "" {
		return nil, errors.InvalidInput("client_id", "client id is required")
	}
	return d.approvers.ListByClient(ctx, clientID, roles)
}

// DisplayNames resolves each id to a label: name, else email, else the raw
// id. Unknown ids map to themselves, so rendering never shows a blank.
func (d *ApproverDirectory) DisplayNames(ctx context.Context, clientID string, ids []string) (map[string]string, error) {
	if clientID == "" {
		return nil, errors.InvalidInput("client_id", "client id is required")
	}

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		names[id] = id
	}

	entries, err := d.approvers.GetByIDs(ctx, clientID, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		names[e.ID] = DisplayName(e)
	}
	return names, nil
}

// DisplayName picks the label for one directory entry: name, else email,
// else id. Never empty for a non-empty id.
func DisplayName(a *repository.Approver) string {
	if a.Name != "" {
		return a.Name
	}
	if a.Email != "" {
		return a.Email
	}
	return a.ID
}
