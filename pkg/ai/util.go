package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema reflects a JSON Schema for value's type, shaped for strict
// structured-output requests: definitions inlined, no additional properties.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflector.Reflect(reflect.New(t).Interface())
}

// UnmarshalFlexible parses model-produced JSON into out, tolerating the
// usual failure modes: payloads double-encoded as a JSON string, a stuttered
// opening brace, unquoted keys, single quotes, trailing commas, missing
// closers. Strict parsing is tried first; jsonrepair is the last resort.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)
	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	// Double-encoded: the whole payload is one JSON string. Unwrap it and
	// keep the unwrapped text for the repair path below.
	var unwrapped string
	if err := json.Unmarshal([]byte(input), &unwrapped); err == nil {
		unwrapped = strings.TrimSpace(unwrapped)
		if err := json.Unmarshal([]byte(unwrapped), out); err == nil {
			return nil
		}
		input = unwrapped
	}

	// Some models stutter the opening brace ("{ {"); drop the outer one so
	// the repairer does not wrap everything in an extra object.
	if strings.HasPrefix(input, "{") {
		if rest := strings.TrimSpace(input[1:]); strings.HasPrefix(rest, "{") {
			input = rest
		}
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf(
			"unmarshal failed after repair: input=%s repaired=%s",
			input, repaired,
		)
	}
	return nil
}
