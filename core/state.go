package core

// Position is the state machine position of a conversation between model
// generation (Chat), tool dispatch (Tools) and the accepting exit state of a
// turn (Terminal).
type Position string

// Machine positions. Every turn starts at PositionChat; PositionTerminal is
// the only position from which a reply is produced.
const (
	PositionChat     Position = "chat"
	PositionTools    Position = "tools"
	PositionTerminal Position = "terminal"
)

// ConversationState is the checkpointed state of one conversation: the
// append-only chronological message log plus the machine position. It is
// owned exclusively by the engine for the duration of one turn and by the
// checkpoint store between turns; the engine serializes turns per thread, so
// no internal locking is required.
type ConversationState struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`
	Position Position  `json:"position"`
}

// NewConversationState creates an empty state for a thread, positioned at Chat.
func NewConversationState(threadID string) *ConversationState {
	return &ConversationState{ThreadID: threadID, Position: PositionChat}
}

// Append adds messages to the end of the log.
func (s *ConversationState) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Last returns the most recent message, or nil for an empty log.
func (s *ConversationState) Last() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// Clone returns a deep copy of the state safe for independent mutation.
// Messages themselves are immutable once appended, so the slice copy is
// sufficient.
func (s *ConversationState) Clone() *ConversationState {
	clone := &ConversationState{ThreadID: s.ThreadID, Position: s.Position}
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	return clone
}
