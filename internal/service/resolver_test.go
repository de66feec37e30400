package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condoflow/be-approval-levels/internal/repository"
)

func level(id string, order int, min int64, max *int64, active bool) *repository.ApprovalLevel {
	l := &repository.ApprovalLevel{
		ID:              id,
		ClientID:        "client-1",
		Name:            id,
		OrderLevel:      order,
		AmountThreshold: decimal.NewFromInt(min),
		Active:          active,
		Approvers:       []string{},
	}
	if max != nil {
		l.MaxAmountThreshold = decimal.NullDecimal{Decimal: decimal.NewFromInt(*max), Valid: true}
	}
	return l
}

func amt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func ptr(v int64) *int64 {
	return &v
}

func TestResolveLevel_BandSelection(t *testing.T) {
	levels := []*repository.ApprovalLevel{
		level("first-gate", 1, 0, ptr(1000), true),
		level("second-gate", 2, 1000, nil, true),
	}

	got := ResolveLevel(amt(500), levels)
	require.NotNil(t, got)
	assert.Equal(t, "first-gate", got.ID)

	got = ResolveLevel(amt(1500), levels)
	require.NotNil(t, got)
	assert.Equal(t, "second-gate", got.ID)
}

func TestResolveLevel_InclusiveBoundsOverlapPrefersLowestOrder(t *testing.T) {
	// Amount 1000 sits in both bands: the first band's upper bound and the
	// second band's lower bound are both inclusive. Lowest order wins.
	levels := []*repository.ApprovalLevel{
		level("first-gate", 1, 0, ptr(1000), true),
		level("second-gate", 2, 1000, nil, true),
	}

	got := ResolveLevel(amt(1000), levels)
	require.NotNil(t, got)
	assert.Equal(t, "first-gate", got.ID)
}

func TestResolveLevel_NoLevels(t *testing.T) {
	assert.Nil(t, ResolveLevel(amt(100), nil))
	assert.Nil(t, ResolveLevel(amt(100), []*repository.ApprovalLevel{}))
}

func TestResolveLevel_NoBandCovers(t *testing.T) {
	levels := []*repository.ApprovalLevel{
		level("mid", 1, 100, ptr(200), true),
	}

	assert.Nil(t, ResolveLevel(amt(50), levels))
	assert.Nil(t, ResolveLevel(amt(201), levels))
}

func TestResolveLevel_NeverSelectsInactive(t *testing.T) {
	levels := []*repository.ApprovalLevel{
		level("retired", 1, 0, nil, false),
		level("live", 5, 0, nil, true),
	}

	got := ResolveLevel(amt(100), levels)
	require.NotNil(t, got)
	assert.Equal(t, "live", got.ID)

	// Only inactive candidates means no match at all.
	assert.Nil(t, ResolveLevel(amt(100), levels[:1]))
}

func TestResolveLevel_OverlappingBandsTieBreak(t *testing.T) {
	levels := []*repository.ApprovalLevel{
		level("loose", 3, 0, nil, true),
		level("tight", 1, 0, ptr(5000), true),
		level("middle", 2, 0, ptr(10000), true),
	}

	for i := 0; i < 10; i++ {
		got := ResolveLevel(amt(2500), levels)
		require.NotNil(t, got)
		assert.Equal(t, "tight", got.ID, "tie-break must be deterministic across calls")
	}
}

func TestResolveLevel_EqualOrderKeepsEarliest(t *testing.T) {
	levels := []*repository.ApprovalLevel{
		level("earlier", 2, 0, nil, true),
		level("later", 2, 0, nil, true),
	}

	got := ResolveLevel(amt(10), levels)
	require.NotNil(t, got)
	assert.Equal(t, "earlier", got.ID)
}

func TestResolveLevel_ResultContainsAmount(t *testing.T) {
	levels := []*repository.ApprovalLevel{
		level("a", 2, 0, ptr(99), true),
		level("b", 1, 500, ptr(900), true),
		level("c", 4, 1000, nil, true),
		level("d", 3, 50, ptr(75), false),
	}

	for _, v := range []int64{0, 60, 99, 100, 499, 500, 900, 901, 1000, 100000} {
		got := ResolveLevel(amt(v), levels)
		if got == nil {
			continue
		}
		assert.True(t, got.Active)
		assert.True(t, amt(v).GreaterThanOrEqual(got.AmountThreshold),
			"amount %d below band of %s", v, got.ID)
		if got.MaxAmountThreshold.Valid {
			assert.True(t, amt(v).LessThanOrEqual(got.MaxAmountThreshold.Decimal),
				"amount %d above band of %s", v, got.ID)
		}
	}
}

func TestResolveLevel_FractionalAmounts(t *testing.T) {
	half := decimal.RequireFromString("999.99")
	levels := []*repository.ApprovalLevel{
		level("low", 1, 0, ptr(999), true),
		level("high", 2, 1000, nil, true),
	}

	// 999.99 falls in the gap between the bands.
	assert.Nil(t, ResolveLevel(half, levels))
}

func TestSortLevels_StableAscending(t *testing.T) {
	levels := []*repository.ApprovalLevel{
		level("b2-first", 2, 0, nil, true),
		level("a1", 1, 0, nil, true),
		level("b2-second", 2, 0, nil, true),
		level("c3", 3, 0, nil, true),
	}

	SortLevels(levels)

	ids := make([]string, 0, len(levels))
	for _, l := range levels {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"a1", "b2-first", "b2-second", "c3"}, ids)
}
