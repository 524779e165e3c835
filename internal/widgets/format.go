package widgets

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"quantum-dashboard/internal/backend"

	"github.com/shopspring/decimal"
)

// Location is the zone dates are displayed in.
var Location = time.Local

const dateLayout = "2006-01-02 15:04:05"

// Percent renders a value the backend already expresses in percent.
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// Money renders a currency amount with two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Number renders v without trailing zeros, like the backend sent it.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Date converts unix seconds to a local date via milliseconds since epoch.
// Preformatted timestamps are returned unchanged.
func Date(ts backend.Timestamp) string {
	if ts.Text != "" {
		return ts.Text
	}
	if ts.Unix == 0 {
		return ""
	}
	return time.UnixMilli(ts.Unix * 1000).In(Location).Format(dateLayout)
}

// Raw renders a JSON value verbatim; strings lose their quotes.
func Raw(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "-"
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

func signClass(v float64) string {
	switch {
	case v > 0:
		return "profit"
	case v < 0:
		return "loss"
	default:
		return ""
	}
}
