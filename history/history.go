// Package history provides the message audit store and the loader that
// rehydrates prior turns as priming context. It is deliberately a different
// store from the checkpoint: checkpoints snapshot engine state, while history
// records the raw inbound/outbound traffic between two participants.
package history

import (
	"context"
	"time"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
)

// Record types mirroring the direction of a stored message.
const (
	TypeUser      = "user"
	TypeAssistant = "ai"
)

// Record is one stored message between two participants.
type Record struct {
	ID        string
	From      string
	To        string
	Content   string
	Type      string // TypeUser or TypeAssistant
	CreatedAt time.Time
}

// NewRecord creates a record with a fresh id and UTC timestamp.
func NewRecord(from, to, content, recordType string) Record {
	return Record{
		ID:        core.NewID(),
		From:      from,
		To:        to,
		Content:   content,
		Type:      recordType,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists message records and answers conversation queries.
//
// Query returns records exchanged between a and b (either direction) ordered
// most-recent-first, at most limit rows. An empty b matches any counterparty
// of a.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, a, b string, limit int) ([]Record, error)
}
