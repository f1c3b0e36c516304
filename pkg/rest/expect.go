package rest

import (
	"fmt"
	"strconv"
	"strings"
)

// Expect is the status a call must return: a single code or a set of codes.
type Expect interface {
	Matches(code int) bool
	String() string
}

// Code expects exactly one status code.
type Code int

// Matches reports whether code equals the expected code.
func (c Code) Matches(code int) bool { return int(c) == code }

func (c Code) String() string { return strconv.Itoa(int(c)) }

// CodeSet expects any one of several status codes.
type CodeSet []int

// AnyOf builds a CodeSet from the given codes.
func AnyOf(codes ...int) CodeSet {
	out := make(CodeSet, len(codes))
	copy(out, codes)
	return out
}

// Matches reports whether code is a member of the set.
func (s CodeSet) Matches(code int) bool {
	for _, c := range s {
		if c == code {
			return true
		}
	}
	return false
}

func (s CodeSet) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseExpect converts decoded YAML/JSON shapes into an Expect.
// Accepts integers, numeric strings and lists of either.
func ParseExpect(v any) (Expect, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("expected status is empty")
	case Expect:
		return val, nil
	case []int:
		if len(val) == 0 {
			return nil, fmt.Errorf("expected status list is empty")
		}
		return AnyOf(val...), nil
	case []any:
		if len(val) == 0 {
			return nil, fmt.Errorf("expected status list is empty")
		}
		codes := make([]int, 0, len(val))
		for i, item := range val {
			code, err := parseCode(item)
			if err != nil {
				return nil, fmt.Errorf("expected status[%d]: %w", i, err)
			}
			codes = append(codes, code)
		}
		return AnyOf(codes...), nil
	default:
		code, err := parseCode(val)
		if err != nil {
			return nil, err
		}
		return Code(code), nil
	}
}

func parseCode(v any) (int, error) {
	var code int
	switch val := v.(type) {
	case int:
		code = val
	case int64:
		code = int(val)
	case uint64:
		code = int(val)
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("status %v is not an integer", val)
		}
		code = int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("status %q is not numeric", val)
		}
		code = n
	default:
		return 0, fmt.Errorf("unsupported status type %T", v)
	}
	if code < 100 || code > 599 {
		return 0, fmt.Errorf("status %d out of range", code)
	}
	return code, nil
}
