package rest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// Field is one key/value pair of request data.
type Field struct {
	Key   string
	Value any
}

// Fields is ordered request data. Order is preserved in query strings and
// form bodies.
type Fields []Field

// F is shorthand for a single Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// FieldsFromMap converts a map into Fields sorted by key.
func FieldsFromMap(m map[string]any) Fields {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Fields, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Key: k, Value: m[k]})
	}
	return out
}

// appendQuery appends data to rawURL as "?k=v&k2=v2". rawURL is returned
// unchanged when data is empty.
func appendQuery(rawURL string, data Fields) string {
	if len(data) == 0 {
		return rawURL
	}
	pairs := make([]string, 0, len(data))
	for _, f := range data {
		pairs = append(pairs, queryEscape(f.Key)+"="+queryEscape(renderValue(f.Value)))
	}
	return rawURL + "?" + strings.Join(pairs, "&")
}

// queryEscape escapes s for a query string. Values that are already escaped
// are sent untouched and commas from joined lists stay literal.
func queryEscape(s string) string {
	if strings.Contains(s, "%") {
		if plain, err := url.QueryUnescape(s); err == nil && plain != s {
			return s
		}
	}
	return strings.ReplaceAll(url.QueryEscape(s), "%2C", ",")
}

// encodeFields renders data as "k=v&k2=v2". The second result reports whether
// any value was a structured object (and therefore JSON-rendered).
func encodeFields(data Fields) (string, bool) {
	structured := false
	pairs := make([]string, 0, len(data))
	for _, f := range data {
		if isStructured(f.Value) {
			structured = true
		}
		pairs = append(pairs, f.Key+"="+renderValue(f.Value))
	}
	return strings.Join(pairs, "&"), structured
}

// renderValue renders a field value: structured objects as JSON, lists joined
// with commas, everything else through fmt.
func renderValue(v any) string {
	if v == nil {
		return ""
	}
	if isStructured(v) {
		return jsonText(v)
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = renderValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

// isStructured reports whether v is an object that serializes to JSON rather
// than to a scalar: maps, structs, pointers to either, or json.Marshalers.
func isStructured(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(json.Marshaler); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		return true
	default:
		return false
	}
}

func jsonText(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
