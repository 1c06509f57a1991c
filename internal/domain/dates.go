package domain

import (
	"time"

	"bazaar-dashboard/pkg/report"

	"github.com/goccy/go-json"
)

// looseTime reads an upstream timestamp without failing the surrounding
// document. Null, empty and unrecognised values decode to the zero time,
// which the period reports skip.
func looseTime(raw json.RawMessage) time.Time {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return time.Time{}
	}
	return report.ParseTime(s)
}

func looseTimePtr(raw json.RawMessage) *time.Time {
	t := looseTime(raw)
	if t.IsZero() {
		return nil
	}
	return &t
}
