package tools

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/genkit-ai/genkit-go/pkg/inference/model"
)

// CanonicalPrefix is prepended to tool names to form the normalized registry
// key under which executable tools are resolved.
const CanonicalPrefix = "tool/"

// CanonicalName returns the normalized registry key for a tool name, adding
// the canonical prefix when missing.
func CanonicalName(name string) string {
	if strings.HasPrefix(name, CanonicalPrefix) {
		return name
	}
	return CanonicalPrefix + name
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errType = reflect.TypeOf((*error)(nil)).Elem()

// Tool is an executable capability resolved by name through the registry.
// It wraps a plain Go function together with the JSON schema surface
// advertised to models.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	fn        reflect.Value
	takesCtx  bool
	inputType reflect.Type // nil when the function takes no JSON input
}

// NewToolFromFunc creates a Tool from a Go function. Supported signatures:
//
//	func(Input) (Result, error)
//	func(context.Context, Input) (Result, error)
//	func(Input) Result
//	func(context.Context) (Result, error)
//	func() (Result, error)
func NewToolFromFunc(name, description string, fn interface{}) (*Tool, error) {
	funcType := reflect.TypeOf(fn)
	if funcType == nil || funcType.Kind() != reflect.Func {
		return nil, errors.New("provided value is not a function")
	}

	if funcType.NumOut() == 0 || funcType.NumOut() > 2 {
		return nil, errors.New("function must return (result) or (result, error)")
	}
	if funcType.NumOut() == 2 && !funcType.Out(1).Implements(errType) {
		return nil, errors.New("second return value must be an error")
	}

	takesCtx := false
	var inputType reflect.Type
	switch funcType.NumIn() {
	case 0:
	case 1:
		if funcType.In(0) == ctxType {
			takesCtx = true
		} else {
			inputType = funcType.In(0)
		}
	case 2:
		if funcType.In(0) != ctxType {
			return nil, errors.New("two-arg tool function must be (context.Context, Input)")
		}
		takesCtx = true
		inputType = funcType.In(1)
	default:
		return nil, errors.Errorf("unsupported tool function signature: numIn=%d", funcType.NumIn())
	}

	return &Tool{
		Name:        name,
		Description: description,
		InputSchema: schemaForInput(inputType),
		fn:          reflect.ValueOf(fn),
		takesCtx:    takesCtx,
		inputType:   inputType,
	}, nil
}

// Definition returns the schema surface advertised to models.
func (t *Tool) Definition() *model.ToolDefinition {
	return &model.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// Execute coerces the raw input into the declared input shape and invokes the
// wrapped function synchronously.
func (t *Tool) Execute(ctx context.Context, input interface{}) (interface{}, error) {
	args := make([]reflect.Value, 0, 2)
	if t.takesCtx {
		if ctx == nil {
			ctx = context.Background()
		}
		args = append(args, reflect.ValueOf(ctx))
	}
	if t.inputType != nil {
		in, err := t.coerceInput(input)
		if err != nil {
			return nil, err
		}
		args = append(args, in)
	}

	results := t.fn.Call(args)
	return extractResults(results)
}

// coerceInput converts a generic structured value into the declared input
// type. Untyped key/value maps are decoded with mapstructure so callers and
// models can pass plain JSON objects for struct-typed tools.
func (t *Tool) coerceInput(input interface{}) (reflect.Value, error) {
	if input == nil {
		return reflect.New(t.inputType).Elem(), nil
	}

	switch in := input.(type) {
	case json.RawMessage:
		return t.unmarshalInput([]byte(in))
	case []byte:
		return t.unmarshalInput(in)
	}

	inVal := reflect.ValueOf(input)
	if inVal.Type().AssignableTo(t.inputType) {
		return inVal, nil
	}
	if inVal.Type().ConvertibleTo(t.inputType) {
		return inVal.Convert(t.inputType), nil
	}

	target := reflect.New(t.inputType)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  target.Interface(),
	})
	if err != nil {
		return reflect.Value{}, errors.Wrap(err, "failed to build input decoder")
	}
	if err := decoder.Decode(input); err != nil {
		log.Debug().Err(err).Str("tool", t.Name).Str("input_type", t.inputType.String()).Msg("tools: input coercion failed")
		return reflect.Value{}, errors.Wrapf(err, "failed to coerce input into %s", t.inputType)
	}
	return target.Elem(), nil
}

func (t *Tool) unmarshalInput(raw []byte) (reflect.Value, error) {
	target := reflect.New(t.inputType)
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return reflect.Value{}, errors.Wrap(err, "failed to unmarshal arguments")
	}
	return target.Elem(), nil
}

// extractResults extracts the result and error from function call results.
func extractResults(results []reflect.Value) (interface{}, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		result := results[0].Interface()
		errInterface := results[1].Interface()
		if errInterface == nil {
			return result, nil
		}
		if err, ok := errInterface.(error); ok {
			return result, err
		}
		return result, errors.Errorf("unexpected error type: %T", errInterface)
	default:
		return nil, errors.Errorf("unexpected number of return values: %d", len(results))
	}
}

// schemaForInput derives the JSON schema advertised for the tool's input
// type. Definitions are expanded inline instead of using $refs for provider
// compatibility.
func schemaForInput(inputType reflect.Type) *jsonschema.Schema {
	if inputType == nil {
		return &jsonschema.Schema{Type: "object"}
	}

	inputInstance := reflect.New(inputType).Elem().Interface()
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(inputInstance)
	if schema.Type == "" && schema.Ref == "" {
		schema.Type = "object"
	}
	return schema
}
