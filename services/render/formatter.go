package render

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// defaultTimeLayout is the string form used for unformatted time fields.
const defaultTimeLayout = "Jan 2, 2006 3:04 PM"

// timeParseLayouts are the layouts accepted when a date format specifier is
// applied to a field value.
var timeParseLayouts = []string{
	defaultTimeLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// applyFormatSpecifier formats a field's string value with the given
// specifier. Unrecognized specifiers return the value unchanged.
func applyFormatSpecifier(value, spec string) string {
	switch spec {
	case "D2":
		if n, err := strconv.Atoi(value); err == nil {
			return fmt.Sprintf("%02d", n)
		}
	case "F2":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return strconv.FormatFloat(f, 'f', 2, 64)
		}
	case "F0":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
	case "MMM dd, yyyy":
		if t, ok := parseTime(value); ok {
			return t.Format("Jan 02, 2006")
		}
	case "dd/MM/yyyy":
		if t, ok := parseTime(value); ok {
			return t.Format("02/01/2006")
		}
	case "MMM dd":
		if t, ok := parseTime(value); ok {
			return t.Format("Jan 02")
		}
	}
	return value
}

func parseTime(value string) (time.Time, bool) {
	for _, layout := range timeParseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// defaultString renders a field value in its default string form.
func defaultString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(defaultTimeLayout)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}
