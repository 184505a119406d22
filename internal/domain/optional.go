package domain

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes "field absent" from "field present" in partial updates.
// A JSON null decodes as set to the zero value.
type Optional[T any] struct {
	value T
	set   bool
}

func Set[T any](v T) Optional[T] { return Optional[T]{value: v, set: true} }

func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

func (o Optional[T]) IsSet() bool { return o.set }

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		o.value = zero
		return nil
	}
	return json.Unmarshal(b, &o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
