package rules

import "go.starlark.net/starlark"

// goValueToStarlark converts a plain Go value (the shapes TOML/JSON
// decoding produces: map[string]any, []any, string, bool, int64, float64,
// nil) into a Starlark value for passing into script callables.
func goValueToStarlark(v any) starlark.Value {
	switch t := v.(type) {
	case nil:
		return starlark.None
	case string:
		return starlark.String(t)
	case bool:
		return starlark.Bool(t)
	case int:
		return starlark.MakeInt(t)
	case int64:
		return starlark.MakeInt64(t)
	case float64:
		return starlark.Float(t)
	case []string:
		elems := make([]starlark.Value, len(t))
		for i, s := range t {
			elems[i] = starlark.String(s)
		}
		return starlark.NewList(elems)
	case []any:
		elems := make([]starlark.Value, len(t))
		for i, e := range t {
			elems[i] = goValueToStarlark(e)
		}
		return starlark.NewList(elems)
	case map[string]any:
		d := starlark.NewDict(len(t))
		for k, val := range t {
			_ = d.SetKey(starlark.String(k), goValueToStarlark(val))
		}
		return d
	default:
		return starlark.String("")
	}
}

// starlarkValueToGo converts a Starlark value back into a plain Go value,
// the inverse of goValueToStarlark, used for set_global_context and
// context-generator return data.
func starlarkValueToGo(v starlark.Value) any {
	switch t := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.String:
		return string(t)
	case starlark.Bool:
		return bool(t)
	case starlark.Int:
		i, _ := t.Int64()
		return i
	case starlark.Float:
		return float64(t)
	case *starlark.List:
		out := make([]any, t.Len())
		for i := 0; i < t.Len(); i++ {
			out[i] = starlarkValueToGo(t.Index(i))
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, t.Len())
		for _, item := range t.Items() {
			k, _ := starlark.AsString(item[0])
			out[k] = starlarkValueToGo(item[1])
		}
		return out
	default:
		return v.String()
	}
}
