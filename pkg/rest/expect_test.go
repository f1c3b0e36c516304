package rest

import "testing"

func TestExpectMatches(t *testing.T) {
	if !Code(200).Matches(200) || Code(200).Matches(201) {
		t.Fatalf("Code match wrong")
	}
	set := AnyOf(200, 204)
	if !set.Matches(204) || set.Matches(500) {
		t.Fatalf("CodeSet match wrong")
	}
	if set.String() != "[200,204]" {
		t.Fatalf("String = %s", set.String())
	}
}

func TestParseExpect(t *testing.T) {
	cases := []struct {
		in   any
		code int
		ok   bool
	}{
		{in: 201, code: 201, ok: true},
		{in: "204", code: 204, ok: true},
		{in: float64(200), code: 200, ok: true},
		{in: []any{200, "201"}, code: 201, ok: true},
		{in: []int{404}, code: 404, ok: true},
		{in: "abc", ok: false},
		{in: 42, ok: false},
		{in: []any{}, ok: false},
		{in: nil, ok: false},
	}
	for _, tc := range cases {
		exp, err := ParseExpect(tc.in)
		if !tc.ok {
			if err == nil {
				t.Fatalf("ParseExpect(%v) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseExpect(%v): %v", tc.in, err)
		}
		if !exp.Matches(tc.code) {
			t.Fatalf("ParseExpect(%v) does not match %d", tc.in, tc.code)
		}
	}
}

func TestBaseURL(t *testing.T) {
	if got := BaseURL("http://x/y?a=1?b=2"); got != "http://x/y" {
		t.Fatalf("BaseURL = %s", got)
	}
	if got := BaseURL("http://x/y"); got != "http://x/y" {
		t.Fatalf("BaseURL = %s", got)
	}
}

func TestRenderValue(t *testing.T) {
	if got := renderValue([]string{"a", "b"}); got != "a,b" {
		t.Fatalf("slice = %q", got)
	}
	if got := renderValue(nil); got != "" {
		t.Fatalf("nil = %q", got)
	}
	if got := renderValue(map[string]int{"n": 1}); got != `{"n":1}` {
		t.Fatalf("map = %q", got)
	}
	if isStructured([]int{1}) || !isStructured(&struct{}{}) {
		t.Fatalf("isStructured wrong")
	}
}

func TestFieldsFromMapSorted(t *testing.T) {
	f := FieldsFromMap(map[string]any{"b": 2, "a": 1})
	if len(f) != 2 || f[0].Key != "a" || f[1].Key != "b" {
		t.Fatalf("unexpected order %#v", f)
	}
}
