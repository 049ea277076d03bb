package weatherpod

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	"github.com/invopop/jsonschema"

	"github.com/boat-builder/weatherpod/model"
)

// Tool is something an agent's model may call during a turn.
type Tool interface {
	Name() string
	Description() string
	// StatusMessage is a short human readable note shown while the tool
	// runs. It may be empty.
	StatusMessage() string
	Declaration() *model.ToolDeclaration
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// GenerateSchema reflects the JSON schema of T the way tool declarations
// need it: inlined definitions and no additional properties.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	schema.ID = ""
	return schema
}

// FunctionTool exposes a typed Go function as a Tool. Arguments are decoded
// into I and the result O is encoded back into a JSON object.
type FunctionTool[I, O any] struct {
	name          string
	description   string
	statusMessage string
	schema        *jsonschema.Schema
	fn            func(context.Context, I) (O, error)
}

type FunctionToolOption func(*functionToolOptions)

type functionToolOptions struct {
	statusMessage string
}

// WithStatusMessage sets the note returned by StatusMessage.
func WithStatusMessage(msg string) FunctionToolOption {
	return func(o *functionToolOptions) {
		o.statusMessage = msg
	}
}

// NewFunctionTool wraps fn. It fails with ErrInvalidTool when the name is not
// accepted by model APIs, fn is nil, or I is not a struct.
func NewFunctionTool[I, O any](name, description string, fn func(context.Context, I) (O, error), opts ...FunctionToolOption) (*FunctionTool[I, O], error) {
	if !toolNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: name %q must match %s", ErrInvalidTool, name, toolNamePattern)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %s has no function", ErrInvalidTool, name)
	}
	if in := reflect.TypeOf((*I)(nil)).Elem(); in.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s takes %s, want a struct", ErrInvalidTool, name, in)
	}
	var o functionToolOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &FunctionTool[I, O]{
		name:          name,
		description:   description,
		statusMessage: o.statusMessage,
		schema:        GenerateSchema[I](),
		fn:            fn,
	}, nil
}

func (t *FunctionTool[I, O]) Name() string {
	return t.name
}

func (t *FunctionTool[I, O]) Description() string {
	return t.description
}

func (t *FunctionTool[I, O]) StatusMessage() string {
	return t.statusMessage
}

func (t *FunctionTool[I, O]) Declaration() *model.ToolDeclaration {
	return &model.ToolDeclaration{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.schema,
	}
}

// Execute decodes args, calls the function and encodes its result. Argument
// decoding problems are reported as RetryableError so the model can fix them.
func (t *FunctionTool[I, O]) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("encode arguments: %w", err)}
	}
	var in I
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("invalid arguments for %s: %w", t.name, err)}
	}
	out, err := t.fn(ctx, in)
	if err != nil {
		return nil, err
	}
	return toResponseMap(out)
}

// toResponseMap turns a tool result into the object shape function responses
// require. Non-object results are wrapped under "result".
func toResponseMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil && m != nil {
		return m, nil
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return map[string]any{"result": generic}, nil
}
