package generation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// DecodeJSON decodes a model reply into out. Replies wrapped in markdown
// code fences or surrounded by prose are trimmed to the outermost JSON
// object or array first. out is left untouched unless decoding succeeds.
func DecodeJSON(reply string, out any) error {
	text := strings.TrimSpace(reply)
	if text == "" {
		return fmt.Errorf("%w: empty reply", ErrInvalidResponse)
	}

	if err := unmarshalFresh([]byte(text), out); err == nil {
		return nil
	}

	extracted := extractJSON(text)
	if extracted == "" {
		return fmt.Errorf("%w: no JSON found in reply", ErrInvalidResponse)
	}
	if err := unmarshalFresh([]byte(extracted), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func extractJSON(text string) string {
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return ""
	}
	return text[start : end+1]
}

// unmarshalFresh decodes data into a zero value of out's type and stores it
// in out only on success, so a reply that fails halfway leaves no fields
// behind.
func unmarshalFresh(data []byte, out any) error {
	return intoFresh(out, func(fresh any) error {
		return json.Unmarshal(data, fresh)
	})
}

// intoFresh calls fill with a pointer to a new zero value of the type out
// points to and copies the result into out when fill succeeds. Values that
// are not non-nil pointers are passed to fill unchanged.
func intoFresh(out any, fill func(fresh any) error) error {
	ptr := reflect.ValueOf(out)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fill(out)
	}
	fresh := reflect.New(ptr.Elem().Type())
	if err := fill(fresh.Interface()); err != nil {
		return err
	}
	ptr.Elem().Set(fresh.Elem())
	return nil
}
