// internal/domain/notifytype/registry.go
package notifytype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"deferred_notifier/internal/timeutil"
)

var registry = []Type{
	onceType{},
	repeatBefore30Type{},
	repeatBefore30WeeklyType{},
}

// List returns the schema of every supported type, in registry order.
func List() []Info {
	out := make([]Info, 0, len(registry))
	for _, t := range registry {
		specs := t.Arguments()
		args := make([]ArgSpec, len(specs))
		copy(args, specs)
		out = append(out, Info{Type: t.Kind(), Arguments: args})
	}
	return out
}

// Lookup resolves a kind name to its type.
func Lookup(kind string) (Type, bool) {
	for _, t := range registry {
		if string(t.Kind()) == kind {
			return t, true
		}
	}
	return nil, false
}

// ValidatePayload checks a decoded creation payload of the form {"type": ..., "arguments": [...]}.
func ValidatePayload(payload any, now time.Time) (Kind, Arguments, error) {
	body, ok := payload.(map[string]any)
	if !ok {
		return "", nil, newValidationError(CodeShape, "Body must be an object.")
	}
	kind, ok := body["type"].(string)
	if !ok || kind == "" {
		return "", nil, newValidationError(CodeShape, "Missing or invalid 'type'.")
	}
	rawArgs, ok := body["arguments"].([]any)
	if !ok {
		return "", nil, newValidationError(CodeShape, "Missing or invalid 'arguments' (must be an array).")
	}
	args := Arguments(rawArgs)
	if err := ValidateCreation(kind, args, now); err != nil {
		return "", nil, err
	}
	return Kind(kind), args, nil
}

// ValidateCreation resolves kind, checks arity and primitive types, then runs the type's own validator.
func ValidateCreation(kind string, args Arguments, now time.Time) error {
	t, ok := Lookup(kind)
	if !ok {
		return newValidationError(CodeUnknownType, fmt.Sprintf("Unknown type '%s'.", kind))
	}

	specs := t.Arguments()
	if len(args) != len(specs) {
		return newValidationError(CodeArity, fmt.Sprintf("Expected %d arguments for %s.", len(specs), kind))
	}

	for i, spec := range specs {
		if msg := checkPrimitive(spec, args[i]); msg != "" {
			return newValidationError(CodeArgument, fmt.Sprintf("Argument %d (%s) must be %s.", i+1, spec.Label, msg))
		}
	}

	if err := t.Validate(args, now); err != nil {
		return newValidationError(CodeSemantic, err.Error())
	}
	return nil
}

// checkPrimitive returns the expected-type phrase when v does not match spec, or "".
func checkPrimitive(spec ArgSpec, v any) string {
	switch spec.Type {
	case ArgDateTime, ArgText, ArgTextArea:
		if _, ok := v.(string); !ok {
			return "a string"
		}
	case ArgInteger:
		if _, ok := timeutil.AsInt(v); !ok {
			return "an integer"
		}
	case ArgFloat:
		if !timeutil.IsNumber(v) {
			return "a number"
		}
	case ArgBoolean:
		if _, ok := v.(bool); !ok {
			return "a boolean"
		}
	}
	return ""
}

// DecodeArguments parses a JSON array keeping numbers as json.Number.
func DecodeArguments(data []byte) (Arguments, error) {
	var args Arguments
	if err := decodeJSON(data, &args); err != nil {
		return nil, fmt.Errorf("failed to decode arguments: %w", err)
	}
	if args == nil {
		args = Arguments{}
	}
	return args, nil
}

// DecodePayload parses a creation request body keeping numbers as json.Number.
func DecodePayload(data []byte) (any, error) {
	var payload any
	if err := decodeJSON(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
