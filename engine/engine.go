package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/checkpoint"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/model"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/tool"
)

// DefaultMaxToolCycles bounds how many Chat/Tools round trips a single turn
// may perform before the engine gives up.
const DefaultMaxToolCycles = 8

// HistoryFunc rehydrates prior conversation messages for a thread that has
// no checkpoint yet, oldest first.
type HistoryFunc func(ctx context.Context, threadID string, limit int) ([]core.Message, error)

// Options configures an Engine.
type Options struct {
	// Instructions is the system prompt appended once when a thread's state
	// is first created.
	Instructions string

	// MaxToolCycles caps Chat/Tools cycles per turn. Zero means
	// DefaultMaxToolCycles.
	MaxToolCycles int

	// TurnTimeout bounds the wall-clock duration of one turn. Zero disables
	// the timeout.
	TurnTimeout time.Duration

	// History, when set, primes freshly created threads with prior messages.
	History HistoryFunc

	// HistoryLimit caps how many prior messages History may return.
	HistoryLimit int

	Logger logging.Logger
}

// Engine drives conversation turns through the Chat/Tools/Terminal state
// machine, persisting the full conversation state after every append.
// Turns on the same thread are serialized; distinct threads run
// concurrently.
type Engine struct {
	model    model.Model
	registry *tool.Registry
	store    checkpoint.Store
	executor *executor
	opts     Options
	logger   logging.Logger

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// New constructs an Engine. The registry may be empty, in which case no
// tools are offered to the model and every turn terminates after one
// generation.
func New(m model.Model, registry *tool.Registry, store checkpoint.Store, opts Options) *Engine {
	if opts.MaxToolCycles <= 0 {
		opts.MaxToolCycles = DefaultMaxToolCycles
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if registry == nil {
		registry = tool.NewRegistry()
	}
	return &Engine{
		model:    m,
		registry: registry,
		store:    store,
		executor: newExecutor(registry, opts.Logger),
		opts:     opts,
		logger:   opts.Logger,
		threads:  make(map[string]*sync.Mutex),
	}
}

// RunTurn processes one inbound user message on a thread and returns the
// assistant's aggregated reply. The thread's checkpoint is loaded (or
// created), the user message appended, and the state machine driven until
// Terminal. Concurrent turns on the same thread queue behind each other.
func (e *Engine) RunTurn(ctx context.Context, threadID, text string) (string, error) {
	lock := e.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	if e.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.TurnTimeout)
		defer cancel()
	}

	state, err := e.store.Load(ctx, threadID)
	if err != nil {
		return "", err
	}
	if state == nil {
		state = e.newThreadState(ctx, threadID)
	}

	// A checkpoint stuck in the tools position means a prior turn died with
	// calls pending. Settle them first so the log stays well formed.
	if state.Position == core.PositionTools {
		e.logger.Info("resuming pending tool calls", "thread_id", threadID)
		if err := e.runTools(ctx, state); err != nil {
			return "", err
		}
	}

	state.Append(core.NewTextMessage(core.RoleUser, text))
	state.Position = core.PositionChat
	if err := e.store.Save(ctx, threadID, state); err != nil {
		return "", err
	}

	agg := newResponseAggregator()
	if err := e.drive(ctx, state, agg); err != nil {
		return "", err
	}
	return agg.Reply(), nil
}

func (e *Engine) newThreadState(ctx context.Context, threadID string) *core.ConversationState {
	state := core.NewConversationState(threadID)
	if e.opts.Instructions != "" {
		state.Append(core.NewTextMessage(core.RoleSystem, e.opts.Instructions))
	}
	if e.opts.History != nil {
		prior, err := e.opts.History(ctx, threadID, e.opts.HistoryLimit)
		if err != nil {
			// Priming is best effort; the thread starts cold instead.
			e.logger.Warn("history priming failed", "thread_id", threadID, "error", err)
		}
		for _, m := range prior {
			state.Append(m)
		}
	}
	e.logger.Info("thread created", "thread_id", threadID, "primed", len(state.Messages))
	return state
}

// drive advances the state machine until Terminal. A state loaded at
// Terminal performs zero cycles.
func (e *Engine) drive(ctx context.Context, state *core.ConversationState, agg *responseAggregator) error {
	cycles := 0
	for {
		switch state.Position {
		case core.PositionChat:
			if err := e.generate(ctx, state, agg); err != nil {
				return err
			}
			if state.Position == core.PositionTools {
				cycles++
				if cycles > e.opts.MaxToolCycles {
					e.logger.Error("cycle limit exceeded", "thread_id", state.ThreadID, "cycles", cycles)
					return ErrCycleLimit
				}
			}
		case core.PositionTools:
			if err := e.runTools(ctx, state); err != nil {
				return err
			}
		case core.PositionTerminal:
			return nil
		default:
			return fmt.Errorf("unknown position %q", state.Position)
		}
	}
}

// generate runs one Chat step: ask the model for the next assistant
// message, stream its text into the aggregator, append the final message
// and route.
func (e *Engine) generate(ctx context.Context, state *core.ConversationState, agg *responseAggregator) error {
	req := model.Request{
		Messages: state.Messages,
		Tools:    e.toolDefinitions(),
		Stream:   true,
	}

	respCh, errCh := e.model.Generate(ctx, req)

	var final *model.Response
	sawStreamedText := false
	for resp := range respCh {
		if resp.Partial {
			if agg.Consume(resp) {
				sawStreamedText = true
			}
			continue
		}
		r := resp
		final = &r
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("model generation: %w", err)
	}
	if final == nil {
		return errors.New("model produced no final response")
	}

	msg := core.NewMessage(core.RoleAssistant)
	msg.Parts = final.Parts
	state.Append(msg)
	state.Position = route(state.Last())
	if err := e.store.Save(ctx, state.ThreadID, state); err != nil {
		return err
	}

	// Non-streaming models deliver their text only in the final response.
	if state.Position == core.PositionTerminal && !sawStreamedText {
		agg.Consume(*final)
	}
	return nil
}

// runTools executes the unanswered calls of the latest assistant message and
// appends one result message per call, checkpointing after each append. A
// checkpoint taken between result appends resumes with only the remainder,
// so every call ends up with exactly one result before Chat re-entry.
func (e *Engine) runTools(ctx context.Context, state *core.ConversationState) error {
	for _, msg := range e.executor.execute(ctx, pendingCalls(state)) {
		state.Append(msg)
		if err := e.store.Save(ctx, state.ThreadID, state); err != nil {
			return err
		}
	}
	state.Position = route(state.Last())
	return e.store.Save(ctx, state.ThreadID, state)
}

// pendingCalls returns the function calls of the latest assistant message
// that have no tool result yet, in call order.
func pendingCalls(state *core.ConversationState) []core.FunctionCall {
	idx := -1
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == core.RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	answered := make(map[string]bool)
	for _, msg := range state.Messages[idx+1:] {
		for _, fr := range msg.FunctionResponses() {
			answered[fr.ID] = true
		}
	}

	var pending []core.FunctionCall
	for _, call := range state.Messages[idx].FunctionCalls() {
		if !answered[call.ID] {
			pending = append(pending, call)
		}
	}
	return pending
}

func (e *Engine) toolDefinitions() []model.ToolDefinition {
	tools := e.registry.List()
	if len(tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

func (e *Engine) threadLock(threadID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		e.threads[threadID] = lock
	}
	return lock
}
