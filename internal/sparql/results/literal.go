package results

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const xsd = "http://www.w3.org/2001/XMLSchema#"

var integerTypes = map[string]struct{}{
	"integer": {}, "int": {}, "long": {}, "short": {}, "byte": {},
	"nonNegativeInteger": {}, "positiveInteger": {}, "negativeInteger": {}, "nonPositiveInteger": {},
	"unsignedLong": {}, "unsignedInt": {}, "unsignedShort": {}, "unsignedByte": {},
}

var dateLayouts = []string{"2006-01-02", "2006-01-02Z07:00"}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// DecodeTerm converts a term to a Go scalar according to its datatype.
// Values that do not parse as their declared type stay strings.
func DecodeTerm(t Term) any {
	if t.Type != "literal" && t.Type != "typed-literal" {
		return t.Value
	}
	local, ok := strings.CutPrefix(t.Datatype, xsd)
	if !ok {
		return t.Value
	}
	v := strings.TrimSpace(t.Value)

	if _, isInt := integerTypes[local]; isInt {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		// beyond int64: keep it numeric
		if f, ok := finite(v); ok {
			return f
		}
		return t.Value
	}

	switch local {
	case "decimal", "double", "float":
		if f, ok := finite(v); ok {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	case "date":
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts
			}
		}
	case "dateTime":
		for _, layout := range dateTimeLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts
			}
		}
	}
	return t.Value
}

// finite parses v as a float64. NaN and the infinities are rejected since
// they have no JSON encoding; such literals stay strings.
func finite(v string) (float64, bool) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsFloat reads a numeric cell. Strings are accepted when they parse.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case string:
		return finite(strings.TrimSpace(n))
	default:
		return 0, false
	}
}

// AsString renders a cell for display; nil becomes "".
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case time.Time:
		if s.Hour() == 0 && s.Minute() == 0 && s.Second() == 0 && s.Nanosecond() == 0 {
			return s.Format("2006-01-02")
		}
		return s.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
