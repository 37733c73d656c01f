package api

import "encoding/json"

// tolerantList decodes an array, treating any other JSON value as empty and
// skipping elements that fail to decode.
type tolerantList[T any] []T

func (l *tolerantList[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make(tolerantList[T], 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
		}
	}
	*l = out
	return nil
}

// tolerantObject decodes an object, recording whether one was present and
// treating any other JSON value as absent.
type tolerantObject[T any] struct {
	Value   T
	Present bool
}

func (o *tolerantObject[T]) UnmarshalJSON(data []byte) error {
	*o = tolerantObject[T]{}
	var v T
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	o.Value = v
	o.Present = true
	return nil
}
