package starlark

import (
	"errors"
	"fmt"

	starlarkLib "go.starlark.net/starlark"

	"github.com/phtml-go/phtml/execution/constants"
)

// convertStarlarkValueToInterface converts a Starlark value to a Go any value.
func convertStarlarkValueToInterface(v starlarkLib.Value) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case starlarkLib.NoneType:
		return nil, nil
	case starlarkLib.Bool:
		return bool(v), nil
	case starlarkLib.Int:
		i, _ := v.Int64()
		return i, nil
	case starlarkLib.Float:
		return float64(v), nil
	case starlarkLib.String:
		return string(v), nil
	case *starlarkLib.List:
		list := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertStarlarkValueToInterface(v.Index(i))
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element: %w", err)
			}
			list = append(list, elem)
		}
		return list, nil
	case *starlarkLib.Dict:
		dict := make(map[string]any)
		for _, k := range v.Keys() {
			val, found, err := v.Get(k)
			if err != nil || !found {
				continue
			}

			kStr, ok := k.(starlarkLib.String)
			if !ok {
				// Non-string keys are stringified so the structured
				// result stays a string-keyed map.
				kStr = starlarkLib.String(k.String())
			}

			vv, err := convertStarlarkValueToInterface(val)
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value: %w", err)
			}
			dict[string(kStr)] = vv
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported Starlark type %T", v)
	}
}

// convertToPredeclared builds the predeclared environment for one code
// block: every scope entry as its own global, plus the ctx dict carrying
// all of them.
func convertToPredeclared(scope map[string]any) (starlarkLib.StringDict, error) {
	sDict := make(starlarkLib.StringDict, len(scope)+1)
	ctxDict := starlarkLib.NewDict(len(scope))

	errz := make([]error, 0, len(scope))
	for k, v := range scope {
		starlarkVal, err := convertToStarlarkValue(v)
		if err != nil {
			errz = append(errz, fmt.Errorf("failed to convert scope value for key %q: %w", k, err))
			continue
		}
		sDict[k] = starlarkVal
		if err := ctxDict.SetKey(starlarkLib.String(k), starlarkVal); err != nil {
			errz = append(errz, fmt.Errorf("failed to set ctx dict key %q: %w", k, err))
			continue
		}
	}

	if len(errz) > 0 {
		return nil, fmt.Errorf("failed to convert scope: %w", errors.Join(errz...))
	}

	sDict[constants.Ctx] = ctxDict
	return sDict, nil
}

func convertToStarlarkValue(v any) (starlarkLib.Value, error) {
	if v == nil {
		return starlarkLib.None, nil
	}

	switch val := v.(type) {
	case bool:
		return starlarkLib.Bool(val), nil
	case int:
		return starlarkLib.MakeInt(val), nil
	case int64:
		return starlarkLib.MakeInt64(val), nil
	case float64:
		return starlarkLib.Float(val), nil
	case string:
		return starlarkLib.String(val), nil
	case []any:
		elements := make([]starlarkLib.Value, len(val))
		for i, elem := range val {
			var err error
			elements[i], err = convertToStarlarkValue(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element: %w", err)
			}
		}
		return starlarkLib.NewList(elements), nil
	case map[string]any:
		dict := starlarkLib.NewDict(len(val))
		for k, v := range val {
			starlarkVal, err := convertToStarlarkValue(v)
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
