// Package checkpoint persists the durable snapshot of a conversation (its
// message log and machine position) keyed by thread id. The interface and the
// in-memory implementation live here; the SQLite backend lives in the sqlite
// sub-package so callers that only need the contract do not pull the driver.
package checkpoint

import (
	"context"
	"fmt"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
)

// Store persists and reloads conversation state by thread id.
//
// Contract:
//   - Load returns (nil, nil) for an unknown thread id; the engine then
//     starts a fresh state.
//   - Save is a full-state overwrite, not an append: callers must pass the
//     complete state. One checkpoint per thread id.
//   - Backend initialization (schema setup) happens in the constructor,
//     before any Load/Save is accepted; failure there is fatal at startup.
//   - Per-call failures are reported as *PersistenceError.
type Store interface {
	Load(ctx context.Context, threadID string) (*core.ConversationState, error)
	Save(ctx context.Context, threadID string, state *core.ConversationState) error
}

// PersistenceError reports a failed load or save. The engine surfaces it to
// the turn caller instead of silently losing the reply; the caller decides
// retry policy.
type PersistenceError struct {
	Op       string // "load" or "save"
	ThreadID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkpoint %s failed for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error { return e.Err }
