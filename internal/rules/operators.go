package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

// parsedOperator is the decomposed form of an operator string like
// "notStartsWithAny": a negate flag, a quantifier suffix ("any"/"all"/""),
// and the base operator name.
type parsedOperator struct {
	negate     bool
	quantifier string // "any", "all", or ""
	base       string
}

// parseOperator decomposes an operator string per spec.md §4.1:
//   - strip a leading "not" if followed by an uppercase letter, setting
//     negate and lowercasing the first letter of the remainder.
//   - strip a trailing "Any"/"All" suffix, lowercasing the character that
//     follows (there is none; the suffix is the end of the string), setting
//     quantifier.
func parseOperator(op string) parsedOperator {
	var p parsedOperator

	rest := op
	if strings.HasPrefix(rest, "not") && len(rest) > 3 && unicode.IsUpper(rune(rest[3])) {
		p.negate = true
		rest = lowerFirst(rest[3:])
	}

	switch {
	case strings.HasSuffix(rest, "Any"):
		p.quantifier = "any"
		rest = rest[:len(rest)-3]
	case strings.HasSuffix(rest, "All"):
		p.quantifier = "all"
		rest = rest[:len(rest)-3]
	}

	p.base = rest
	return p
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Evaluate applies the operator string op to fieldValue and value, returning
// the final boolean result (quantifier expansion over array values, then
// negation applied last, per spec.md §4.1).
func Evaluate(op string, fieldValue any, value any) (bool, error) {
	p := parseOperator(op)

	arr, isArray := toSlice(value)
	var result bool
	var err error

	if isArray && p.quantifier != "" {
		switch p.quantifier {
		case "any":
			result = false
			for _, v := range arr {
				ok, e := applyBase(p.base, fieldValue, v)
				if e != nil {
					return false, e
				}
				if ok {
					result = true
					break
				}
			}
		case "all":
			result = true
			for _, v := range arr {
				ok, e := applyBase(p.base, fieldValue, v)
				if e != nil {
					return false, e
				}
				if !ok {
					result = false
					break
				}
			}
		}
	} else {
		result, err = applyBase(p.base, fieldValue, value)
		if err != nil {
			return false, err
		}
	}

	if p.negate {
		result = !result
	}
	return result, nil
}

func toSlice(v any) ([]any, bool) {
	switch vv := v.(type) {
	case []any:
		return vv, true
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// applyBase applies one of the base operators of spec.md §4.1 to a scalar
// field value and comparison value.
func applyBase(base string, fieldValue, value any) (bool, error) {
	switch base {
	case "=", "eq":
		return compareEqual(fieldValue, value), nil
	case "!=", "ne":
		return !compareEqual(fieldValue, value), nil
	case "<":
		return compareOrdered(fieldValue, value, func(c int) bool { return c < 0 })
	case "<=":
		return compareOrdered(fieldValue, value, func(c int) bool { return c <= 0 })
	case ">":
		return compareOrdered(fieldValue, value, func(c int) bool { return c > 0 })
	case ">=":
		return compareOrdered(fieldValue, value, func(c int) bool { return c >= 0 })
	case "contains":
		return strings.Contains(asString(fieldValue), asString(value)), nil
	case "startsWith":
		return strings.HasPrefix(asString(fieldValue), asString(value)), nil
	case "endsWith":
		return strings.HasSuffix(asString(fieldValue), asString(value)), nil
	case "glob", "fnmatch":
		return doublestar.Match(asString(value), asString(fieldValue))
	case "regex":
		re, err := regexp.Compile(asString(value))
		if err != nil {
			return false, fmt.Errorf("compiling regex %q: %w", asString(value), err)
		}
		return re.MatchString(asString(fieldValue)), nil
	case "oneOf":
		arr, ok := toSlice(value)
		if !ok {
			return compareEqual(fieldValue, value), nil
		}
		for _, v := range arr {
			if compareEqual(fieldValue, v) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown rule operator %q", base)
	}
}

func asString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case fmt.Stringer:
		return vv.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func compareEqual(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// compareOrdered compares a and b numerically, by time, or lexicographically
// as a fallback, applying judge to the resulting three-way comparison.
func compareOrdered(a, b any, judge func(int) bool) (bool, error) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return judge(-1), nil
		case af > bf:
			return judge(1), nil
		default:
			return judge(0), nil
		}
	}

	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		switch {
		case at.Before(bt):
			return judge(-1), nil
		case at.After(bt):
			return judge(1), nil
		default:
			return judge(0), nil
		}
	}

	return judge(strings.Compare(asString(a), asString(b))), nil
}

func toFloat(v any) (float64, bool) {
	switch vv := v.(type) {
	case int:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	default:
		return 0, false
	}
}
