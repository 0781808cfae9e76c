package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// args wraps the raw arguments of a tool call.
type args map[string]any

func (a args) has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a args) getString(key string) (string, error) {
	if !a.has(key) {
		return "", nil
	}
	s, ok := a[key].(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}

func (a args) requireString(key string) (string, error) {
	s, err := a.getString(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// int returns the integer under key and whether it was present.
func (a args) getInt(key string) (int, bool, error) {
	if !a.has(key) {
		return 0, false, nil
	}
	n, err := toInt(a[key])
	if err != nil {
		return 0, false, fmt.Errorf("%s %w", key, err)
	}
	return n, true, nil
}

func (a args) requireInt(key string) (int, error) {
	n, ok, err := a.getInt(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return n, nil
}

func (a args) getFloat(key string) (*float64, error) {
	if !a.has(key) {
		return nil, nil
	}
	switch v := a[key].(type) {
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", key)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("%s must be a number", key)
	}
}

func (a args) getBool(key string) (bool, error) {
	if !a.has(key) {
		return false, nil
	}
	b, ok := a[key].(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}

func (a args) getInts(key string) ([]int, error) {
	if !a.has(key) {
		return nil, nil
	}
	items, ok := a[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of numbers", key)
	}
	out := make([]int, 0, len(items))
	for i, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] %w", key, i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// decode re-marshals the value under key into v.
func (a args) decode(key string, v any) error {
	if !a.has(key) {
		return nil
	}
	raw, err := json.Marshal(a[key])
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s has an invalid shape: %w", key, err)
	}
	return nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("must be an integer")
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		return i, nil
	default:
		return 0, fmt.Errorf("must be an integer")
	}
}

// resolveIDOrKey picks the identifier for a resource addressable by numeric
// id or by key. The id wins when both are present.
func resolveIDOrKey(kind string, a args) (string, error) {
	return resolve(kind, a, kind+"Id", kind+"Key")
}

// resolveIDOrName is resolveIDOrKey for resources addressed by name.
func resolveIDOrName(kind string, a args) (string, error) {
	return resolve(kind, a, kind+"Id", kind+"Name")
}

func resolve(kind string, a args, idKey, altKey string) (string, error) {
	id, ok, err := a.getInt(idKey)
	if err != nil {
		return "", err
	}
	if ok {
		return strconv.Itoa(id), nil
	}
	alt, err := a.getString(altKey)
	if err != nil {
		return "", err
	}
	if alt != "" {
		return alt, nil
	}
	return "", fmt.Errorf("%s: either %s or %s is required", kind, idKey, altKey)
}
