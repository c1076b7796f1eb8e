package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/tool"
)

// executor dispatches the function calls of one assistant message against
// the tool registry. Calls run sequentially in message order, and every
// call produces exactly one result message. Failures never abort the
// batch: an unknown tool, malformed arguments, an execution error or a
// panic all become error-carrying results the model can react to.
type executor struct {
	registry *tool.Registry
	logger   logging.Logger
}

func newExecutor(registry *tool.Registry, logger logging.Logger) *executor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &executor{registry: registry, logger: logger}
}

// execute runs all calls in order and returns one tool message per call,
// in the same order.
func (x *executor) execute(ctx context.Context, calls []core.FunctionCall) []core.Message {
	results := make([]core.Message, 0, len(calls))
	for _, call := range calls {
		results = append(results, x.executeOne(ctx, call))
	}
	return results
}

func (x *executor) executeOne(ctx context.Context, call core.FunctionCall) (msg core.Message) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Error("tool panicked", "tool", call.Name, "call_id", call.ID, "panic", r)
			msg = core.NewToolResultMessage(call.ID, call.Name, nil,
				fmt.Errorf("tool %q panicked: %v", call.Name, r))
		}
	}()

	t, ok := x.registry.Get(call.Name)
	if !ok {
		x.logger.Warn("unknown tool requested", "tool", call.Name, "call_id", call.ID)
		return core.NewToolResultMessage(call.ID, call.Name, nil,
			fmt.Errorf("unknown tool %q", call.Name))
	}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return core.NewToolResultMessage(call.ID, call.Name, nil,
				fmt.Errorf("invalid arguments for tool %q: %w", call.Name, err))
		}
	}

	x.logger.Debug("executing tool", "tool", call.Name, "call_id", call.ID)
	result, err := t.Call(ctx, args)
	if err != nil {
		x.logger.Warn("tool execution failed", "tool", call.Name, "call_id", call.ID, "error", err)
		return core.NewToolResultMessage(call.ID, call.Name, nil, err)
	}
	return core.NewToolResultMessage(call.ID, call.Name, result, nil)
}
