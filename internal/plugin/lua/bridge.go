package lua

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// ToLuaValue converts a decoded JSON-like Go value (nil, bool, numbers, string,
// []any, map[string]any) to a Lua value. Other types become their fmt string.
func ToLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, ToLuaValue(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, ToLuaValue(L, item))
		}
		return t
	case lua.LValue:
		return val
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// ToGoValue converts a Lua value to a Go value. Sequences become []any, other
// tables become map[string]any. Cyclic references convert to nil.
func ToGoValue(lv lua.LValue) any {
	return toGo(lv, make(map[*lua.LTable]bool))
}

func toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGo(v, visited)
	})
	return m
}

// FormatArgs renders Lua call arguments for logging: strings as is, everything else in
// Lua's own tostring form, tables with sorted keys.
func FormatArgs(args ...lua.LValue) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if t, ok := a.(*lua.LTable); ok {
			out[i] = formatTable(t)
			continue
		}
		out[i] = a.String()
	}
	return out
}

func formatTable(t *lua.LTable) string {
	var keys []string
	vals := make(map[string]string)
	t.ForEach(func(k, v lua.LValue) {
		ks := k.String()
		keys = append(keys, ks)
		vals[ks] = v.String()
	})
	sort.Strings(keys)

	s := "{"
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		s += k + "=" + vals[k]
	}
	return s + "}"
}
