package dto

import (
	"bytes"
	"encoding/json"
)

// Field is a PATCH body member. Set records whether the key was present at
// all; a present key holding JSON null leaves Value nil.
type Field[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// IsNull reports whether the key was sent as null.
func (f Field[T]) IsNull() bool {
	return f.Set && f.Value == nil
}

// Present reports whether the key was sent with a value.
func (f Field[T]) Present() bool {
	return f.Set && f.Value != nil
}
