package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message within a conversation.
type Role string

// Conversation roles. Tool-role messages carry exactly one FunctionResponsePart
// answering a FunctionCall from the immediately preceding assistant message.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry in the conversation log. After being appended to
// a ConversationState it must be treated as immutable.
type Message struct {
	ID        string
	Role      Role
	Parts     []Part
	Timestamp time.Time
}

// NewMessage creates an empty message for the given role.
func NewMessage(role Role) Message {
	return Message{ID: NewID(), Role: role, Timestamp: time.Now().UTC()}
}

// NewTextMessage creates a message holding a single text part.
func NewTextMessage(role Role, text string) Message {
	m := NewMessage(role)
	m.Parts = []Part{TextPart{Text: text}}
	return m
}

// NewToolResultMessage records the completion result (or error) of a tool
// invocation as a tool-role message correlated by call id.
func NewToolResultMessage(callID, name string, result any, err error) Message {
	fr := FunctionResponse{ID: callID, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	m := NewMessage(RoleTool)
	m.Parts = []Part{FunctionResponsePart{FunctionResponse: fr}}
	return m
}

// NewID generates a new unique identifier for messages and records.
func NewID() string { return uuid.NewString() }

// Text concatenates all text parts of the message in order.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// FunctionCalls returns any FunctionCall parts contained within the message
// preserving their original order.
func (m Message) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range m.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// FunctionResponses returns any FunctionResponse parts contained within the
// message preserving their original order.
func (m Message) FunctionResponses() []FunctionResponse {
	var responses []FunctionResponse
	for _, p := range m.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}
