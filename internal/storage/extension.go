package storage

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ExtensionState holds optional values on a stored record, each kept as raw
// JSON under its own key so records written before a key existed still load.
type ExtensionState map[string]json.RawMessage

// Set stores v under key after marshalling it to JSON.
func (e *ExtensionState) Set(key string, v any) error {
	if key == "" {
		return fmt.Errorf("extension key must not be empty")
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal extension %q: %w", key, err)
	}

	if *e == nil {
		*e = ExtensionState{}
	}
	(*e)[key] = b
	return nil
}

// Get unmarshals the value at key into out. It reports false, with no error,
// when the key is absent.
func (e ExtensionState) Get(key string, out any) (bool, error) {
	raw, ok := e[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("unmarshal extension %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key, if present.
func (e ExtensionState) Delete(key string) {
	delete(e, key)
}

// Keys lists the stored keys in order.
func (e ExtensionState) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Extension is Get for a value of type T.
func Extension[T any](e ExtensionState, key string) (T, bool, error) {
	var v T
	found, err := e.Get(key, &v)
	if err != nil || !found {
		var zero T
		return zero, found, err
	}
	return v, true, nil
}
