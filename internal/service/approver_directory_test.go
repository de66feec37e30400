package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condoflow/be-approval-levels/internal/errors"
	"github.com/condoflow/be-approval-levels/internal/repository"
)

type memApproverStore struct {
	entries []*repository.Approver
}

func (m *memApproverStore) ListByClient(_ context.Context, clientID string, roles []string) ([]*repository.Approver, error) {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}
	out := make([]*repository.Approver, 0)
	for _, a := range m.entries {
		if a.ClientID != clientID {
			continue
		}
		if len(roleSet) > 0 {
			if _, ok := roleSet[a.Role]; !ok {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memApproverStore) GetByIDs(_ context.Context, clientID string, ids []string) ([]*repository.Approver, error) {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	out := make([]*repository.Approver, 0)
	for _, a := range m.entries {
		if a.ClientID != clientID {
			continue
		}
		if _, ok := idSet[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestDisplayName_Fallbacks(t *testing.T) {
	assert.Equal(t, "Ana Souza", DisplayName(&repository.Approver{ID: "u1", Name: "Ana Souza", Email: "ana@example.com"}))
	assert.Equal(t, "ana@example.com", DisplayName(&repository.Approver{ID: "u1", Email: "ana@example.com"}))
	assert.Equal(t, "u1", DisplayName(&repository.Approver{ID: "u1"}))
}

func TestDisplayNames_UnknownIDsMapToThemselves(t *testing.T) {
	store := &memApproverStore{entries: []*repository.Approver{
		{ID: "u1", ClientID: "c1", Name: "Ana Souza"},
		{ID: "u2", ClientID: "c1", Email: "bruno@example.com"},
		{ID: "u3", ClientID: "c2", Name: "Wrong Tenant"},
	}}
	dir := NewApproverDirectory(store)

	names, err := dir.DisplayNames(context.Background(), "c1", []string{"u1", "u2", "u3", "ghost"})
	require.NoError(t, err)

	assert.Equal(t, "Ana Souza", names["u1"])
	assert.Equal(t, "bruno@example.com", names["u2"])
	assert.Equal(t, "u3", names["u3"], "cross-tenant ids resolve to the raw id")
	assert.Equal(t, "ghost", names["ghost"], "unknown ids must never render blank")
}

func TestDirectoryList_FiltersByRole(t *testing.T) {
	store := &memApproverStore{entries: []*repository.Approver{
		{ID: "u1", ClientID: "c1", Name: "Ana", Role: "sindico"},
		{ID: "u2", ClientID: "c1", Name: "Bruno", Role: "morador"},
		{ID: "u3", ClientID: "c1", Name: "Clara", Role: "gestor"},
	}}
	dir := NewApproverDirectory(store)

	approvers, err := dir.List(context.Background(), "c1", []string{"sindico", "gestor"})
	require.NoError(t, err)
	require.Len(t, approvers, 2)

	_, err = dir.List(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}
