package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"practice_exam_backend/internal/model"
)

// DecodeError reports that no strategy could read a stored string array.
type DecodeError struct {
	Raw  string
	Errs []error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode string array %q: %v", e.Raw, errors.Join(e.Errs...))
}

type arrayDecoder struct {
	name   string
	decode func(raw string) ([]string, error)
}

// arrayDecoders are tried in order; the first success wins.
var arrayDecoders = []arrayDecoder{
	{name: "strict", decode: decodeStrictArray},
	{name: "bracket-repair", decode: repairBracketedArray},
}

const placeholderStrategy = "placeholder"

// EncodeOptions serializes options as a JSON array. A nil list encodes as [].
func EncodeOptions(options []string) (string, error) {
	if options == nil {
		options = []string{}
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// tryDecodeStringArray runs the decoder chain and returns the strategy that succeeded.
func tryDecodeStringArray(raw string) ([]string, string, error) {
	decodeErr := &DecodeError{Raw: raw}
	for _, d := range arrayDecoders {
		out, err := d.decode(raw)
		if err == nil {
			return out, d.name, nil
		}
		decodeErr.Errs = append(decodeErr.Errs, fmt.Errorf("%s: %w", d.name, err))
	}
	return nil, "", decodeErr
}

// DecodeOptions never fails: unreadable values degrade to the placeholder list.
// The returned strategy names the decoder that produced the result.
func DecodeOptions(raw string) ([]string, string) {
	out, strategy, err := tryDecodeStringArray(raw)
	if err != nil {
		return model.PlaceholderOptions(), placeholderStrategy
	}
	return out, strategy
}

func decodeStrictArray(raw string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("not an array")
	}
	return out, nil
}

// repairBracketedArray reads the legacy [A,B,C] form: unquoted, comma separated,
// no escaping. Segments that are already quoted keep their text.
func repairBracketedArray(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errors.New("not wrapped in brackets")
	}
	inner := s[1 : len(s)-1]
	if strings.ContainsAny(inner, "[]") {
		return nil, errors.New("unbalanced brackets")
	}
	if strings.TrimSpace(inner) == "" {
		return []string{}, nil
	}

	segments := strings.Split(inner, ",")
	quoted := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = unquote(strings.TrimSpace(seg))
		b, err := json.Marshal(seg)
		if err != nil {
			return nil, err
		}
		quoted = append(quoted, string(b))
	}

	return decodeStrictArray("[" + strings.Join(quoted, ",") + "]")
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
