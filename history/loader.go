package history

import (
	"context"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
)

// DefaultLimit bounds how many prior records are rehydrated when the caller
// does not specify a limit.
const DefaultLimit = 20

// Loader converts stored records into conversation messages for priming a
// fresh conversation state with prior context.
type Loader struct {
	store Store
}

// NewLoader constructs a Loader over a history store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Recent returns the last limit messages between the two participants in
// chronological (oldest-first) order, even though the backing query returns
// most-recent-first. Stored role markers are mapped to the canonical
// user/assistant roles.
func (l *Loader) Recent(ctx context.Context, a, b string, limit int) ([]core.Message, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	records, err := l.store.Query(ctx, a, b, limit)
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	messages := make([]core.Message, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		role := core.RoleAssistant
		if rec.Type == TypeUser {
			role = core.RoleUser
		}
		messages = append(messages, core.NewTextMessage(role, rec.Content))
	}
	return messages, nil
}
