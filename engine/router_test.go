package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
)

func TestRoute(t *testing.T) {
	withCall := core.NewMessage(core.RoleAssistant)
	withCall.Parts = []core.Part{
		core.TextPart{Text: "let me check"},
		core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "web_search", Arguments: "{}"}},
	}

	toolResult := core.NewToolResultMessage("c1", "web_search", "results", nil)
	userMsg := core.NewTextMessage(core.RoleUser, "hi")
	plainAssistant := core.NewTextMessage(core.RoleAssistant, "hello!")
	systemMsg := core.NewTextMessage(core.RoleSystem, "be helpful")

	tests := []struct {
		name string
		msg  *core.Message
		want core.Position
	}{
		{"nil message", nil, core.PositionTerminal},
		{"assistant with function call", &withCall, core.PositionTools},
		{"tool result", &toolResult, core.PositionChat},
		{"user message", &userMsg, core.PositionChat},
		{"plain assistant text", &plainAssistant, core.PositionTerminal},
		{"system message", &systemMsg, core.PositionTerminal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, route(tt.msg))
		})
	}
}

func TestRoute_IsDeterministic(t *testing.T) {
	msg := core.NewTextMessage(core.RoleUser, "same input")
	first := route(&msg)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, route(&msg))
	}
}
