package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/condoflow/be-approval-levels/internal/repository"
)

// ResolveLevel selects the single approval level governing the given amount.
//
// Only active levels are considered. A level matches when
// amount >= AmountThreshold and, if an upper bound is set,
// amount <= MaxAmountThreshold (both bounds inclusive). When several active
// bands overlap, the lowest OrderLevel wins; equal ranks resolve to the
// earliest level in the input slice. Returns nil when no level applies —
// a normal outcome, and what it means (auto-approve, block) is caller policy.
//
// Pure: no I/O, no mutation of the input, deterministic.
func ResolveLevel(amount decimal.Decimal, levels []*repository.ApprovalLevel) *repository.ApprovalLevel {
	var selected *repository.ApprovalLevel
	for _, level := range levels {
		if !level.Active {
			continue
		}
		if amount.LessThan(level.AmountThreshold) {
			continue
		}
		if level.MaxAmountThreshold.Valid && amount.GreaterThan(level.MaxAmountThreshold.Decimal) {
			continue
		}
		if selected == nil || level.OrderLevel < selected.OrderLevel {
			selected = level
		}
	}
	return selected
}

// SortLevels orders levels ascending by OrderLevel. The sort is stable:
// records with equal ranks keep their prior relative order, matching the
// resolver's lowest-rank-wins tie-break.
func SortLevels(levels []*repository.ApprovalLevel) {
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].OrderLevel < levels[j].OrderLevel
	})
}
