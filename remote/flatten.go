package remote

import (
	"bytes"

	"emperror.dev/errors"
	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

// flattenLists decodes an object whose values are lists, such as members
// keyed by guild id, into a single list. Lists are concatenated in the order
// the keys appear in the document.
func flattenLists[T any](data []byte) ([]T, error) {
	out := make([]T, 0)
	err := eachValue(data, jsonparser.Array, func(value []byte) error {
		var items []T
		if err := json.Unmarshal(value, &items); err != nil {
			return err
		}
		out = append(out, items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// flattenValues decodes an object whose values are single records keyed by
// id into a list, in document order.
func flattenValues[T any](data []byte) ([]T, error) {
	out := make([]T, 0)
	err := eachValue(data, jsonparser.Object, func(value []byte) error {
		var item T
		if err := json.Unmarshal(value, &item); err != nil {
			return err
		}
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func eachValue(data []byte, want jsonparser.ValueType, fn func(value []byte) error) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	err := jsonparser.ObjectEach(data, func(key []byte, value []byte, dt jsonparser.ValueType, _ int) error {
		if dt != want {
			return errors.Errorf("unexpected %s under key %q", dt, key)
		}
		return fn(value)
	})
	if err != nil {
		return &Error{Kind: KindProtocol, Message: "failed to parse response: " + string(data), err: err}
	}
	return nil
}
