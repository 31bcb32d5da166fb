// Package patch decodes partial-update request bodies. A Field records whether
// the key was present at all, whether it was sent as null/"" (a clear), and the
// decoded value otherwise.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(trimmed, &f.Value)
}

// Present reports a non-null value.
func (f Field[T]) Present() bool { return f.Set && !f.Null }

// Cleared reports an explicit null/empty value.
func (f Field[T]) Cleared() bool { return f.Set && f.Null }

// Ptr returns nil unless a value was sent.
func (f Field[T]) Ptr() *T {
	if !f.Present() {
		return nil
	}
	v := f.Value
	return &v
}

func Value[T any](v T) Field[T] { return Field[T]{Set: true, Value: v} }

func Null[T any]() Field[T] { return Field[T]{Set: true, Null: true} }

// NumberError is returned when a numeric field cannot be parsed.
type NumberError struct {
	Raw  string
	Kind string
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("invalid %s value %q", e.Kind, e.Raw)
}

// Int accepts 12, 12.0 or "12".
type Int int

func (n *Int) UnmarshalJSON(b []byte) error {
	raw, err := numericText(b)
	if err != nil {
		return err
	}
	i, err := strconv.Atoi(raw)
	if err == nil {
		*n = Int(i)
		return nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return &NumberError{Raw: raw, Kind: "integer"}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return &NumberError{Raw: raw, Kind: "integer"}
	}
	*n = Int(int(f))
	return nil
}

// Float accepts 9.99 or "9.99".
type Float float64

func (n *Float) UnmarshalJSON(b []byte) error {
	raw, err := numericText(b)
	if err != nil {
		return err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return &NumberError{Raw: raw, Kind: "number"}
	}
	*n = Float(f)
	return nil
}

func numericText(b []byte) (string, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[' || trimmed[0] == 't' || trimmed[0] == 'f') {
		return "", &NumberError{Raw: string(trimmed), Kind: "number"}
	}
	return string(trimmed), nil
}
