package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// ErrUnparsableOutput is returned when no framing of the model output parses as a JSON object.
var ErrUnparsableOutput = errors.New("unparsable model output")

var errNotObject = errors.New("not a JSON object")

var (
	jsonFencePattern = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	anyFencePattern  = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// ExtractJSONObject decodes the JSON object carried by free-form model output
// into v, which must be a non-nil pointer. Framings are tried in order: a
// ```json fence, any fence, the span from the first '{' to the last '}', and
// finally the whole text. Each framing is decoded into a fresh value and only
// the first one that decodes to an object is stored in v; on failure v is left
// untouched and the error of the last attempt is returned.
func ExtractJSONObject(text string, v any) error {
	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("extract target must be a non-nil pointer, got %T", v)
	}

	var candidates []string
	if m := jsonFencePattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := anyFencePattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last != -1 && last > first {
		candidates = append(candidates, text[first:last+1])
	}
	candidates = append(candidates, text)

	var lastErr error
	for _, candidate := range candidates {
		decoded, err := decodeObject(candidate, target.Elem().Type())
		if err != nil {
			lastErr = err
			continue
		}
		target.Elem().Set(decoded)
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnparsableOutput, lastErr)
}

// decodeObject unmarshals a top-level JSON object into a new value of type t.
func decodeObject(candidate string, t reflect.Type) (reflect.Value, error) {
	data := []byte(strings.TrimSpace(candidate))
	if len(data) == 0 || data[0] != '{' {
		return reflect.Value{}, errNotObject
	}
	fresh := reflect.New(t)
	if err := json.Unmarshal(data, fresh.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return fresh.Elem(), nil
}
