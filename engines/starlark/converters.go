package starlark

import (
	"fmt"
	"net/url"

	starlarkLib "go.starlark.net/starlark"
)

// toGo converts a Starlark value to a Go value. Values without a natural Go
// representation (functions, modules, structs) are returned unchanged so the
// caller still sees what the script produced. Dict keys and set elements
// become strings; a dict or set with two keys that render the same, such as
// 1 and "1", is returned unchanged.
func toGo(v starlarkLib.Value) any {
	if v == nil {
		return nil
	}

	switch v := v.(type) {
	case starlarkLib.NoneType:
		return nil
	case starlarkLib.Bool:
		return bool(v)
	case starlarkLib.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.BigInt()
	case starlarkLib.Float:
		return float64(v)
	case starlarkLib.String:
		return string(v)
	case starlarkLib.Bytes:
		return []byte(v)
	case *starlarkLib.List:
		list := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			list = append(list, toGo(v.Index(i)))
		}
		return list
	case starlarkLib.Tuple:
		list := make([]any, 0, len(v))
		for _, elem := range v {
			list = append(list, toGo(elem))
		}
		return list
	case *starlarkLib.Set:
		set := make(map[string]struct{}, v.Len())
		iter := v.Iterate()
		defer iter.Done()
		var elem starlarkLib.Value
		for iter.Next(&elem) {
			set[keyString(elem)] = struct{}{}
		}
		if len(set) != v.Len() {
			return v
		}
		return set
	case *starlarkLib.Dict:
		dict := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			dict[keyString(item[0])] = toGo(item[1])
		}
		if len(dict) != v.Len() {
			return v
		}
		return dict
	default:
		return v
	}
}

// keyString renders a dict key or set element as a Go map key.
func keyString(k starlarkLib.Value) string {
	if s, ok := k.(starlarkLib.String); ok {
		return string(s)
	}
	return k.String()
}

// fromGo converts a Go value to a Starlark value.
func fromGo(v any) (starlarkLib.Value, error) {
	if v == nil {
		return starlarkLib.None, nil
	}

	switch val := v.(type) {
	case starlarkLib.Value:
		return val, nil
	case bool:
		return starlarkLib.Bool(val), nil
	case int:
		return starlarkLib.MakeInt(val), nil
	case int32:
		return starlarkLib.MakeInt64(int64(val)), nil
	case int64:
		return starlarkLib.MakeInt64(val), nil
	case uint:
		return starlarkLib.MakeUint(val), nil
	case uint64:
		return starlarkLib.MakeUint64(val), nil
	case float32:
		return starlarkLib.Float(val), nil
	case float64:
		return starlarkLib.Float(val), nil
	case string:
		return starlarkLib.String(val), nil
	case []byte:
		return starlarkLib.Bytes(val), nil
	case *url.URL:
		return starlarkLib.String(val.String()), nil
	case []string:
		elements := make([]starlarkLib.Value, len(val))
		for i, s := range val {
			elements[i] = starlarkLib.String(s)
		}
		return starlarkLib.NewList(elements), nil
	case []any:
		elements := make([]starlarkLib.Value, len(val))
		for i, elem := range val {
			var err error
			elements[i], err = fromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element: %w", err)
			}
		}
		return starlarkLib.NewList(elements), nil
	case map[string]struct{}:
		// golang doesn't have a Set, but often a map[string]struct{} is used instead
		elements := starlarkLib.NewSet(len(val))
		for k := range val {
			if err := elements.Insert(starlarkLib.String(k)); err != nil {
				return nil, fmt.Errorf("failed to insert set element: %w", err)
			}
		}
		return elements, nil
	case map[string][]string:
		dict := starlarkLib.NewDict(len(val))
		for k, values := range val {
			elements := make([]starlarkLib.Value, len(values))
			for i, v := range values {
				elements[i] = starlarkLib.String(v)
			}
			if err := dict.SetKey(starlarkLib.String(k), starlarkLib.NewList(elements)); err != nil {
				return nil, fmt.Errorf("failed to set dict key: %w", err)
			}
		}
		return dict, nil
	case map[string]any:
		dict := starlarkLib.NewDict(len(val))
		for k, v := range val {
			starlarkVal, err := fromGo(v)
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value: %w", err)
			}
			if err := dict.SetKey(starlarkLib.String(k), starlarkVal); err != nil {
				return nil, fmt.Errorf("failed to set dict key: %w", err)
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}
