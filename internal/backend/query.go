package backend

import (
	"net/url"
	"strconv"
	"strings"
)

// Query narrows the history endpoints server-side. Zero fields are omitted.
type Query struct {
	Symbol   string
	FromTime int64 // unix seconds
	ToTime   int64 // unix seconds
}

func (q Query) IsZero() bool {
	return q.Symbol == "" && q.FromTime == 0 && q.ToTime == 0
}

// Params returns the query as request parameters.
func (q Query) Params() map[string]string {
	params := make(map[string]string, 3)
	if q.Symbol != "" {
		params["symbol"] = q.Symbol
	}
	if q.FromTime != 0 {
		params["from_time"] = strconv.FormatInt(q.FromTime, 10)
	}
	if q.ToTime != 0 {
		params["to_time"] = strconv.FormatInt(q.ToTime, 10)
	}
	return params
}

// String renders "?symbol=..&from_time=..&to_time=.." in that order, or "" when empty.
func (q Query) String() string {
	var parts []string
	if q.Symbol != "" {
		parts = append(parts, "symbol="+url.QueryEscape(q.Symbol))
	}
	if q.FromTime != 0 {
		parts = append(parts, "from_time="+strconv.FormatInt(q.FromTime, 10))
	}
	if q.ToTime != 0 {
		parts = append(parts, "to_time="+strconv.FormatInt(q.ToTime, 10))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}
