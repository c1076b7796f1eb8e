package engine

import "github.com/GonzaGomezDev/whatsapp-ai-assistant/core"

// route decides the next position from the latest message alone. It is a
// total, pure function: the same message always yields the same position,
// which is what makes checkpoint resume safe.
//
//   - assistant message carrying function calls: the tools node runs next
//   - tool results or fresh user input: back to the model
//   - anything else (plain assistant text, system, empty log): terminal
func route(last *core.Message) core.Position {
	if last == nil {
		return core.PositionTerminal
	}
	switch last.Role {
	case core.RoleAssistant:
		if len(last.FunctionCalls()) > 0 {
			return core.PositionTools
		}
		return core.PositionTerminal
	case core.RoleTool, core.RoleUser:
		return core.PositionChat
	default:
		return core.PositionTerminal
	}
}
