package model

import "encoding/json"

// Nullable distinguishes an absent field from an explicit null in a partial
// update. The zero value is "absent" and is dropped by `omitzero`.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n Nullable[T]) IsZero() bool {
	return !n.Set
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// ptr returns the value as a pointer suitable for a nullable struct field.
func (n Nullable[T]) ptr() *T {
	if n.Value == nil {
		return nil
	}
	v := *n.Value
	return &v
}

// column returns the value gorm should write: nil for NULL.
func (n Nullable[T]) column() any {
	if n.Value == nil {
		return nil
	}
	return *n.Value
}
