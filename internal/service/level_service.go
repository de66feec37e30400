package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/condoflow/be-approval-levels/internal/errors"
	"github.com/condoflow/be-approval-levels/internal/logger"
	"github.com/condoflow/be-approval-levels/internal/repository"
)

// LevelStore is the persistence surface the service needs. Satisfied by
// repository.ApprovalLevelRepository; tests substitute an in-memory store.
type LevelStore interface {
	Create(ctx context.Context, level *repository.ApprovalLevel) error
	GetByID(ctx context.Context, id, clientID string) (*repository.ApprovalLevel, error)
	List(ctx context.Context, clientID string) ([]*repository.ApprovalLevel, error)
	Update(ctx context.Context, id, clientID string, patch repository.LevelPatch) (*repository.ApprovalLevel, error)
	Delete(ctx context.Context, id, clientID string) error
	CopyDefaults(ctx context.Context, parentClientID, targetClientID string) ([]*repository.ApprovalLevel, error)
}

// AuditStore records immutable level-change history.
type AuditStore interface {
	Append(ctx context.Context, entry *repository.LevelAuditEntry) error
	ListByClient(ctx context.Context, clientID string, levelID *string) ([]*repository.LevelAuditEntry, error)
}

// ChangeNotifier fans out level-change events so concurrent viewers of a
// tenant's levels converge without manual refresh. Implementations must be
// fire-and-forget; failures are logged, never returned.
type ChangeNotifier interface {
	LevelsChanged(ctx context.Context, eventType, clientID, levelID, actorID string)
}

// LevelService orchestrates validation, persistence, audit and change
// notification for a tenant's approval levels.
type LevelService struct {
	levels   LevelStore
	audit    AuditStore
	notifier ChangeNotifier
	log      *logger.Logger
}

// NewLevelService creates a new LevelService. notifier may be nil when the
// service runs without a message bus.
func NewLevelService(levels LevelStore, audit AuditStore, notifier ChangeNotifier, log *logger.Logger) *LevelService {
	return &LevelService{
		levels:   levels,
		audit:    audit,
		notifier: notifier,
		log:      log,
	}
}

// CreateLevelRequest carries a create request.
type CreateLevelRequest struct {
	ClientID           string              `json:"client_id"`
	Name               string              `json:"name"`
	OrderLevel         int                 `json:"order_level"`
	AmountThreshold    decimal.Decimal     `json:"amount_threshold"`
	MaxAmountThreshold decimal.NullDecimal `json:"max_amount_threshold"`
	Approvers          []string            `json:"approvers"`
	Active             bool                `json:"active"`
	ActorID            string              `json:"-"`
}

// UpdateLevelRequest carries a partial update; nil fields are unchanged.
// ClearMaxThreshold removes the upper bound (an explicit flag, because JSON
// null and an absent field are indistinguishable after decoding).
type UpdateLevelRequest struct {
	ID                 string           `json:"id"`
	ClientID           string           `json:"client_id"`
	Name               *string          `json:"name"`
	OrderLevel         *int             `json:"order_level"`
	AmountThreshold    *decimal.Decimal `json:"amount_threshold"`
	MaxAmountThreshold *decimal.Decimal `json:"max_amount_threshold"`
	ClearMaxThreshold  bool             `json:"clear_max_threshold"`
	Approvers          *[]string        `json:"approvers"`
	Active             *bool            `json:"active"`
	ActorID            string           `json:"-"`
}

// List returns a tenant's levels ordered by rank. An unset clientID is the
// quiescent "no tenant selected" state and yields an empty list, not an error.
func (s *LevelService) List(ctx context.Context, clientID string) ([]*repository.ApprovalLevel, error) {
	if clientID == "" {
		return []*repository.ApprovalLevel{}, nil
	}
	return s.levels.List(ctx, clientID)
}

// Create validates and inserts a new approval level.
func (s *LevelService) Create(ctx context.Context, req *CreateLevelRequest) (*repository.ApprovalLevel, error) {
	if req.ClientID == "" {
		return nil, errors.InvalidInput("client_id", "client id is required")
	}
	if req.Name == "" {
		return nil, errors.InvalidInput("name", "name is required")
	}
	if err := validateThresholds(req.AmountThreshold, req.MaxAmountThreshold); err != nil {
		return nil, err
	}

	approvers := req.Approvers
	if approvers == nil {
		approvers = []string{}
	}

	level := &repository.ApprovalLevel{
		ClientID:           req.ClientID,
		Name:               req.Name,
		OrderLevel:         req.OrderLevel,
		AmountThreshold:    req.AmountThreshold,
		MaxAmountThreshold: req.MaxAmountThreshold,
		Approvers:          approvers,
		Active:             req.Active,
	}

	if err := s.levels.Create(ctx, level); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("client_id", level.ClientID).
		Str("level_id", level.ID).
		Int("order_level", level.OrderLevel).
		Msg("Approval level created")

	s.appendAudit(ctx, &repository.LevelAuditEntry{
		ClientID:    level.ClientID,
		LevelID:     &level.ID,
		Action:      "created",
		PerformedBy: req.ActorID,
		Metadata: map[string]interface{}{
			"name":        level.Name,
			"order_level": level.OrderLevel,
		},
	})
	s.notify(ctx, "created", level.ClientID, level.ID, req.ActorID)

	return level, nil
}

// Update applies a partial update. The merged record is validated before any
// store mutation, so an update can never leave an invalid band behind.
func (s *LevelService) Update(ctx context.Context, req *UpdateLevelRequest) (*repository.ApprovalLevel, error) {
	if req.ID == "" {
		return nil, errors.InvalidInput("id", "level id is required")
	}
	if req.ClientID == "" {
		return nil, errors.InvalidInput("client_id", "client id is required")
	}
	if req.Name != nil && *req.Name == "" {
		return nil, errors.InvalidInput("name", "name must not be empty")
	}

	current, err := s.levels.GetByID(ctx, req.ID, req.ClientID)
	if err != nil {
		return nil, err
	}

	// Validate the bounds as they would be after the patch.
	mergedMin := current.AmountThreshold
	if req.AmountThreshold != nil {
		mergedMin = *req.AmountThreshold
	}
	mergedMax := current.MaxAmountThreshold
	if req.ClearMaxThreshold {
		mergedMax = decimal.NullDecimal{}
	} else if req.MaxAmountThreshold != nil {
		mergedMax = decimal.NullDecimal{Decimal: *req.MaxAmountThreshold, Valid: true}
	}
	if err := validateThresholds(mergedMin, mergedMax); err != nil {
		return nil, err
	}

	patch := repository.LevelPatch{
		Name:            req.Name,
		OrderLevel:      req.OrderLevel,
		AmountThreshold: req.AmountThreshold,
		Approvers:       req.Approvers,
		Active:          req.Active,
	}
	if req.ClearMaxThreshold || req.MaxAmountThreshold != nil {
		patch.MaxAmountThreshold = &mergedMax
	}

	level, err := s.levels.Update(ctx, req.ID, req.ClientID, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("client_id", level.ClientID).
		Str("level_id", level.ID).
		Msg("Approval level updated")

	s.appendAudit(ctx, &repository.LevelAuditEntry{
		ClientID:    level.ClientID,
		LevelID:     &level.ID,
		Action:      "updated",
		PerformedBy: req.ActorID,
	})
	s.notify(ctx, "updated", level.ClientID, level.ID, req.ActorID)

	return level, nil
}

// Delete removes a level. The audit trail keeps the record of its existence.
func (s *LevelService) Delete(ctx context.Context, id, clientID, actorID string) error {
	if id == "" {
		return errors.InvalidInput("id", "level id is required")
	}
	if clientID == "" {
		return errors.InvalidInput("client_id", "client id is required")
	}

	if err := s.levels.Delete(ctx, id, clientID); err != nil {
		return err
	}

	s.log.Info().
		Str("client_id", clientID).
		Str("level_id", id).
		Msg("Approval level deleted")

	s.appendAudit(ctx, &repository.LevelAuditEntry{
		ClientID:    clientID,
		LevelID:     &id,
		Action:      "deleted",
		PerformedBy: actorID,
	})
	s.notify(ctx, "deleted", clientID, id, actorID)

	return nil
}

// CopyDefaults seeds a child tenant with the parent's active levels.
// A parent with no active levels yields a NoDefaults error, which callers
// present as an informational notice rather than a failure.
func (s *LevelService) CopyDefaults(ctx context.Context, parentClientID, targetClientID, actorID string) ([]*repository.ApprovalLevel, error) {
	if parentClientID == "" {
		return nil, errors.InvalidInput("parent_client_id", "parent client id is required")
	}
	if targetClientID == "" {
		return nil, errors.InvalidInput("client_id", "target client id is required")
	}
	if parentClientID == targetClientID {
		return nil, errors.InvalidInput("client_id", "target must differ from parent")
	}

	copies, err := s.levels.CopyDefaults(ctx, parentClientID, targetClientID)
	if err != nil {
		return nil, err
	}
	SortLevels(copies)

	s.log.Info().
		Str("parent_client_id", parentClientID).
		Str("client_id", targetClientID).
		Int("count", len(copies)).
		Msg("Default approval levels copied")

	s.appendAudit(ctx, &repository.LevelAuditEntry{
		ClientID:    targetClientID,
		Action:      "copied_defaults",
		PerformedBy: actorID,
		Metadata: map[string]interface{}{
			"parent_client_id": parentClientID,
			"count":            len(copies),
		},
	})
	s.notify(ctx, "copied", targetClientID, "", actorID)

	return copies, nil
}

// ResolveForAmount fetches the tenant's levels and applies the pure resolver.
// A nil result means no approval gate is configured for that amount.
func (s *LevelService) ResolveForAmount(ctx context.Context, clientID string, amount decimal.Decimal) (*repository.ApprovalLevel, error) {
	if clientID == "" {
		return nil, errors.InvalidInput("client_id", "client id is required")
	}
	if amount.IsNegative() {
		return nil, errors.InvalidInput("amount", "amount must not be negative")
	}

	levels, err := s.levels.List(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return ResolveLevel(amount, levels), nil
}

// AuditTrail returns the tenant's level-change history oldest-first.
func (s *LevelService) AuditTrail(ctx context.Context, clientID string, levelID *string) ([]*repository.LevelAuditEntry, error) {
	if clientID == "" {
		return nil, errors.InvalidInput("client_id", "client id is required")
	}
	return s.audit.ListByClient(ctx, clientID, levelID)
}

// ── internal helpers ─────────────────────────────────────────────────────────

func validateThresholds(min decimal.Decimal, max decimal.NullDecimal) error {
	if min.IsNegative() {
		return errors.InvalidInput("amount_threshold", "threshold must not be negative")
	}
	if max.Valid && max.Decimal.LessThan(min) {
		return errors.InvalidInput("max_amount_threshold", "upper bound must not be below the lower bound")
	}
	return nil
}

// appendAudit writes an audit entry, logging a warning on failure. Audit
// failures never interrupt the operation being recorded.
func (s *LevelService) appendAudit(ctx context.Context, entry *repository.LevelAuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("client_id", entry.ClientID).
			Str("action", entry.Action).
			Msg("Failed to write audit log entry")
	}
}

func (s *LevelService) notify(ctx context.Context, eventType, clientID, levelID, actorID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.LevelsChanged(ctx, eventType, clientID, levelID, actorID)
}
