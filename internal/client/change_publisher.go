package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ChangePublisher publishes approval-level change events to NATS so every
// session viewing a tenant's levels converges without manual refresh.
//
// Subject convention: approvals.levels.<client_id>
// Event types: created, updated, deleted, copied
//
// All publish operations are non-fatal — errors are logged but never
// propagated, so a bus outage never interrupts level mutations.
type ChangePublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// LevelChangeEvent is the JSON schema published to NATS.
type LevelChangeEvent struct {
	EventType string    `json:"event_type"`
	ClientID  string    `json:"client_id"`
	LevelID   string    `json:"level_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	At        time.Time `json:"at"`
}

// LevelSubject returns the per-tenant change subject.
func LevelSubject(clientID string) string {
	return fmt.Sprintf("approvals.levels.%s", clientID)
}

// NewChangePublisher creates a publisher backed by the given NATS connection.
// A nil connection produces a publisher that silently drops events.
func NewChangePublisher(conn *nats.Conn, log zerolog.Logger) *ChangePublisher {
	return &ChangePublisher{conn: conn, log: log}
}

// LevelsChanged publishes one change event for a tenant.
func (p *ChangePublisher) LevelsChanged(ctx context.Context, eventType, clientID, levelID, actorID string) {
	if p.conn == nil || clientID == "" {
		return
	}

	event := &LevelChangeEvent{
		EventType: eventType,
		ClientID:  clientID,
		LevelID:   levelID,
		ActorID:   actorID,
		At:        time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("change stream: failed to marshal event")
		return
	}

	subject := LevelSubject(clientID)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("client_id", clientID).
			Msg("change stream: failed to publish event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("event_type", eventType).
		Str("level_id", levelID).
		Msg("change stream: event published")
}
