package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message serialization uses a tagged envelope per part so the heterogeneous
// Parts slice survives a checkpoint round-trip. FunctionResponse payloads are
// decoded as generic JSON values, which is lossy for concrete Go types but
// sufficient for replaying conversations into model requests.

type partEnvelope struct {
	Type             string            `json:"type"`
	Text             string            `json:"text,omitempty"`
	Data             map[string]any    `json:"data,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

type messageEnvelope struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Parts     []partEnvelope `json:"parts"`
	Timestamp time.Time      `json:"timestamp"`
}

const (
	partTypeText             = "text"
	partTypeData             = "data"
	partTypeFunctionCall     = "function_call"
	partTypeFunctionResponse = "function_response"
)

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	env := messageEnvelope{ID: m.ID, Role: m.Role, Timestamp: m.Timestamp}
	env.Parts = make([]partEnvelope, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch v := p.(type) {
		case TextPart:
			env.Parts = append(env.Parts, partEnvelope{Type: partTypeText, Text: v.Text})
		case DataPart:
			env.Parts = append(env.Parts, partEnvelope{Type: partTypeData, Data: v.Data})
		case FunctionCallPart:
			fc := v.FunctionCall
			env.Parts = append(env.Parts, partEnvelope{Type: partTypeFunctionCall, FunctionCall: &fc})
		case FunctionResponsePart:
			fr := v.FunctionResponse
			env.Parts = append(env.Parts, partEnvelope{Type: partTypeFunctionResponse, FunctionResponse: &fr})
		default:
			return nil, fmt.Errorf("core: cannot marshal part of type %T", p)
		}
	}
	return json.Marshal(env)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var env messageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	m.ID = env.ID
	m.Role = env.Role
	m.Timestamp = env.Timestamp
	m.Parts = nil
	for _, pe := range env.Parts {
		switch pe.Type {
		case partTypeText:
			m.Parts = append(m.Parts, TextPart{Text: pe.Text})
		case partTypeData:
			m.Parts = append(m.Parts, DataPart{Data: pe.Data})
		case partTypeFunctionCall:
			if pe.FunctionCall == nil {
				return fmt.Errorf("core: function_call part without payload")
			}
			m.Parts = append(m.Parts, FunctionCallPart{FunctionCall: *pe.FunctionCall})
		case partTypeFunctionResponse:
			if pe.FunctionResponse == nil {
				return fmt.Errorf("core: function_response part without payload")
			}
			m.Parts = append(m.Parts, FunctionResponsePart{FunctionResponse: *pe.FunctionResponse})
		default:
			return fmt.Errorf("core: unknown part type %q", pe.Type)
		}
	}
	return nil
}
