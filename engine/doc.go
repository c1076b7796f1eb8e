// Package engine implements the conversational orchestration loop.
//
// A turn moves a per-thread conversation through a small state machine:
// Chat asks the model for the next assistant message, Tools executes any
// function calls the assistant requested, and Terminal ends the turn with
// the aggregated reply. Routing is a pure function of the latest message,
// so the loop can resume from a checkpoint taken at any point.
//
// The engine checkpoints the full conversation state after every message
// append, serializes turns per thread, and bounds the number of
// Chat/Tools cycles a single turn may perform.
package engine
