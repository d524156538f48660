// Package normalize turns Bitable field values into printable text.
//
// A Bitable cell can arrive as plain text, a number, a select object, a lookup
// array of objects or a millisecond timestamp. Every function here is total:
// any input yields a string, never a panic.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pxk/model"
)

// DatePlaceholder is printed when a slip has no usable date.
const DatePlaceholder = "..."

const displayDateLayout = "02/01/2006"

// Bounds of year 1..9999 in epoch milliseconds.
const (
	minMillis = -62135596800000
	maxMillis = 253402300799999
)

// Location is used to render millisecond timestamps.
var Location = time.Local

var dateLayouts = []string{"2006/1/2", "2006-1-2", "2/1/2006"}

var qtyPrinter = message.NewPrinter(language.English)

// Text converts a field value to a trimmed string.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return strings.TrimSpace(x.String())
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		return fmt.Sprint(x)
	case []any:
		return joinTexts(len(x), func(i int) any { return x[i] })
	case []string:
		return joinTexts(len(x), func(i int) any { return x[i] })
	case []map[string]any:
		return joinTexts(len(x), func(i int) any { return x[i] })
	case []model.Fields:
		return joinTexts(len(x), func(i int) any { return x[i] })
	}
	if obj, ok := asObject(v); ok {
		for _, key := range []string{"text", "name", "value"} {
			if s := Text(obj[key]); s != "" {
				return s
			}
		}
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func joinTexts(n int, at func(int) any) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if s := Text(at(i)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// LinkedIDs returns the record_id of every element of a link-record field, in order.
// Elements without an id are skipped.
func LinkedIDs(v any) []string {
	elems := asList(v)
	ids := make([]string, 0, len(elems))
	for _, el := range elems {
		obj, ok := asObject(el)
		if !ok {
			continue
		}
		if id := Text(obj["record_id"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Date renders a date field as dd/mm/yyyy, or DatePlaceholder when there is none.
// Numbers are epoch milliseconds; strings may be yyyy/mm/dd, yyyy-mm-dd or dd/mm/yyyy.
func Date(v any) string {
	if isEmpty(v) {
		return DatePlaceholder
	}
	if ms, ok := asNumber(v); ok {
		if math.IsNaN(ms) || ms < minMillis || ms > maxMillis {
			return DatePlaceholder
		}
		return time.UnixMilli(int64(ms)).In(Location).Format(displayDateLayout)
	}

	s := Text(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(displayDateLayout)
		}
	}
	if s == "" {
		return DatePlaceholder
	}
	return s
}

// Quantity formats a requested quantity typed with either a decimal comma or a
// decimal point ("5,0", "1 234,50", "1,234.5"). Whole numbers lose their ".00".
// Values that do not parse are returned as text.
func Quantity(v any) string {
	text := Text(v)
	if text == "" {
		return ""
	}

	s := strings.ReplaceAll(text, " ", "")
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && !hasDot:
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return text
	}
	f, _ := d.Round(2).Float64()
	return strings.TrimSuffix(qtyPrinter.Sprintf("%.2f", f), ".00")
}

func asObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case model.Fields:
		return x, true
	case map[string]string:
		obj := make(map[string]any, len(x))
		for k, s := range x {
			obj[k] = s
		}
		return obj, true
	}
	return nil, false
}

func asList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	case []model.Fields:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	}
	return nil
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			// out of range literals are still numbers, just unusable as dates
			return math.NaN(), true
		}
		return f, true
	}
	return 0, false
}

// isEmpty reports the values a slip treats as "no value": nil, zero, false and empty text or lists.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case []any:
		return len(x) == 0
	case []map[string]any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	if f, ok := asNumber(v); ok {
		return f == 0
	}
	return false
}
