package document

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Text renders v the way equality keys and text comparisons see it.
// Strings pass through, json.Number keeps its literal form, and every
// other scalar uses its fmt representation. nil renders as "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Float converts a numeric value to float64. Documents decoded in this
// repo carry json.Number, but operators also accept native Go numerics
// and numeric text so that hand-built documents behave the same.
// ok is false when v is not numeric.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
