package weatherpod

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/log"
	"github.com/boat-builder/weatherpod/model"
	"github.com/boat-builder/weatherpod/prompts"
)

// DefaultMaxModelCalls bounds the model calls of one turn when AgentConfig
// leaves MaxModelCalls unset.
const DefaultMaxModelCalls = 10

// ErrorCodeMaxModelCalls marks the escalation emitted when a turn runs out of
// model calls.
const ErrorCodeMaxModelCalls = "MAX_MODEL_CALLS"

const toolErrorNoRetry = "Error occurred while running. Do not retry"

var agentNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AgentConfig describes an agent. Tools must be non-nil; pass an empty slice
// for an agent without tools.
type AgentConfig struct {
	Name          string
	Model         model.LLM
	Description   string
	Instruction   string
	Tools         []Tool
	MaxModelCalls int
}

// Agent calls its model, runs the tools the model asks for and hands the
// results back until the model answers in plain text.
type Agent struct {
	name          string
	llm           model.LLM
	description   string
	instruction   string
	tools         []Tool
	toolsByName   map[string]Tool
	maxModelCalls int
	logger        log.Logger
}

// Invocation is one turn of a session: the user's message and the history it
// continues.
type Invocation struct {
	ID          string
	Session     *Session
	UserContent *genai.Content
}

func NewAgent(cfg AgentConfig) (*Agent, error) {
	if !agentNamePattern.MatchString(cfg.Name) || cfg.Name == AuthorUser {
		return nil, fmt.Errorf("%w: name %q must be an identifier other than %q", ErrInvalidAgent, cfg.Name, AuthorUser)
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("%w: %s has no model", ErrInvalidAgent, cfg.Name)
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("%w: %s has nil tools", ErrInvalidAgent, cfg.Name)
	}
	if cfg.MaxModelCalls < 0 {
		return nil, fmt.Errorf("%w: %s has negative MaxModelCalls", ErrInvalidAgent, cfg.Name)
	}
	byName := make(map[string]Tool, len(cfg.Tools))
	for _, tool := range cfg.Tools {
		if tool == nil {
			return nil, fmt.Errorf("%w: %s has a nil tool", ErrInvalidAgent, cfg.Name)
		}
		if _, dup := byName[tool.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate tool %s", ErrInvalidAgent, tool.Name())
		}
		byName[tool.Name()] = tool
	}
	maxCalls := cfg.MaxModelCalls
	if maxCalls == 0 {
		maxCalls = DefaultMaxModelCalls
	}
	return &Agent{
		name:          cfg.Name,
		llm:           cfg.Model,
		description:   cfg.Description,
		instruction:   cfg.Instruction,
		tools:         append([]Tool(nil), cfg.Tools...),
		toolsByName:   byName,
		maxModelCalls: maxCalls,
		logger:        log.Default,
	}, nil
}

func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) Description() string {
	return a.description
}

func (a *Agent) Model() model.LLM {
	return a.llm
}

func (a *Agent) Tools() []Tool {
	return append([]Tool(nil), a.tools...)
}

func (a *Agent) GetLogger() log.Logger {
	return a.logger
}

func (a *Agent) SetLogger(logger log.Logger) {
	a.logger = logger
}

func (a *Agent) GetTool(name string) (Tool, error) {
	tool, ok := a.toolsByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// SystemInstruction renders the instruction sent with every model call.
func (a *Agent) SystemInstruction() (string, error) {
	names := make([]string, 0, len(a.tools))
	for _, tool := range a.tools {
		names = append(names, tool.Name())
	}
	return prompts.AgentPrompt(prompts.AgentPromptData{
		Name:        a.name,
		Description: a.description,
		Instruction: a.instruction,
		ToolNames:   names,
	})
}

// Run executes one turn and writes its events to out. It returns when the
// model answers without function calls, on escalation, or when ctx is done.
// Run does not close out.
func (a *Agent) Run(ctx context.Context, inv *Invocation, out chan<- *Event) {
	systemPrompt, err := a.SystemInstruction()
	if err != nil {
		a.logger.Errorw("Error rendering system prompt", "agent", a.name, "error", err)
		send(ctx, out, NewEscalationEvent(inv.ID, a.name, model.ErrorCodeModel, err.Error()))
		return
	}

	var contents []*genai.Content
	if inv.Session != nil {
		contents = BuildContents(inv.Session.Events)
	}
	if len(contents) == 0 && inv.UserContent != nil {
		contents = append(contents, inv.UserContent)
	}

	declarations := make([]*model.ToolDeclaration, 0, len(a.tools))
	for _, tool := range a.tools {
		declarations = append(declarations, tool.Declaration())
	}

	for call := 0; call < a.maxModelCalls; call++ {
		a.logger.Debugw("Calling model", "agent", a.name, "model", a.llm.Name(), "call", call+1)
		resp, err := a.llm.GenerateContent(ctx, &model.Request{
			SystemInstruction: systemPrompt,
			Contents:          contents,
			Tools:             declarations,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Errorw("Error calling model", "agent", a.name, "model", a.llm.Name(), "error", err)
			send(ctx, out, NewEscalationEvent(inv.ID, a.name, model.ErrorCodeModel, err.Error()))
			return
		}

		evt := NewEvent(inv.ID, a.name)
		evt.Content = resp.Content
		evt.Usage = resp.Usage
		if !send(ctx, out, evt) {
			return
		}

		calls := evt.FunctionCalls()
		if len(calls) == 0 {
			return
		}
		if text, ok := evt.Text(); ok && text != "" {
			a.logger.Warnw("Model returned both text and function calls", "agent", a.name)
		}
		contents = append(contents, resp.Content)

		responses, escalation := a.runTools(ctx, calls)
		respEvt := NewEvent(inv.ID, a.name)
		respEvt.Content = genai.NewContentFromParts(responses, genai.RoleUser)
		if !send(ctx, out, respEvt) {
			return
		}
		if escalation != nil {
			send(ctx, out, NewEscalationEvent(inv.ID, a.name, "", escalation.Message))
			return
		}
		contents = append(contents, respEvt.Content)
	}

	a.logger.Errorw("Agent exceeded model calls", "agent", a.name, "limit", a.maxModelCalls)
	send(ctx, out, NewEscalationEvent(inv.ID, a.name, ErrorCodeMaxModelCalls,
		fmt.Sprintf("agent %s exceeded %d model calls", a.name, a.maxModelCalls)))
}

// runTools executes calls concurrently and returns one function response
// part per call in call order. The first escalation, if any, is returned.
func (a *Agent) runTools(ctx context.Context, calls []*genai.FunctionCall) ([]*genai.Part, *EscalationError) {
	parts := make([]*genai.Part, len(calls))
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		escalation *EscalationError
	)
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call *genai.FunctionCall) {
			defer wg.Done()
			result, err := a.runTool(ctx, call)
			var escErr *EscalationError
			if errors.As(err, &escErr) {
				mu.Lock()
				if escalation == nil {
					escalation = escErr
				}
				mu.Unlock()
				result = map[string]any{"error": err.Error()}
			}
			parts[i] = &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: result,
			}}
		}(i, call)
	}
	wg.Wait()
	return parts, escalation
}

// runTool returns the response handed back to the model. Only an escalation
// is returned as an error.
func (a *Agent) runTool(ctx context.Context, call *genai.FunctionCall) (map[string]any, error) {
	tool, err := a.GetTool(call.Name)
	if err != nil {
		a.logger.Errorw("Error getting tool", "tool", call.Name, "error", err)
		return map[string]any{"error": err.Error()}, nil
	}
	if msg := tool.StatusMessage(); msg != "" {
		a.logger.Infow(msg, "tool", tool.Name())
	}
	a.logger.Infow("Running tool", "tool", tool.Name(), "arguments", call.Args)

	output, err := tool.Execute(ctx, call.Args)
	if err == nil {
		return output, nil
	}
	a.logger.Errorw("Error executing tool", "tool", tool.Name(), "error", err)

	var (
		escErr *EscalationError
		retErr *RetryableError
		ignErr *IgnorableError
	)
	switch {
	case errors.As(err, &escErr):
		return nil, escErr
	case errors.As(err, &retErr):
		return map[string]any{"error": fmt.Sprintf("Error: %s.", err.Error()), "retry": true}, nil
	case errors.As(err, &ignErr):
		return map[string]any{"error": toolErrorNoRetry}, nil
	default:
		return map[string]any{"error": err.Error()}, nil
	}
}

// send delivers evt unless ctx is done first.
func send(ctx context.Context, out chan<- *Event, evt *Event) bool {
	select {
	case out <- evt:
		return true
	case <-ctx.Done():
		return false
	}
}
