package model

import "encoding/json"

// Optional distinguishes a field absent from a patch from a field explicitly
// set to null. Set is false until the field appears in the decoded payload;
// a JSON null leaves Value nil, which clears the target field.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null marks the field as explicitly cleared.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v

	return nil
}
