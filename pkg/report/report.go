// Package report holds pure read-side projections over entity collections.
// Nothing here keeps state between calls.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Period string

const (
	Daily   Period = "daily"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// ParsePeriod accepts the query-string spelling of a period.
func ParsePeriod(s string) (Period, bool) {
	switch Period(strings.ToLower(s)) {
	case Daily, "day":
		return Daily, true
	case Monthly, "month", "":
		return Monthly, true
	case Yearly, "year":
		return Yearly, true
	}
	return "", false
}

func (p Period) layout() string {
	switch p {
	case Daily:
		return "2006-01-02"
	case Yearly:
		return "2006"
	}
	return "2006-01"
}

// Bucket is one period's total.
type Bucket struct {
	Key string          `json:"key"`
	Sum decimal.Decimal `json:"sum"`
}

// CountBy counts items per key from scratch.
func CountBy[T any, K comparable](items []T, key func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, item := range items {
		counts[key(item)]++
	}
	return counts
}

// BucketByPeriod sums value per period of date, ascending by key. Items whose
// date is the zero time are left out.
func BucketByPeriod[T any](items []T, period Period, date func(T) time.Time, value func(T) decimal.Decimal) []Bucket {
	layout := period.layout()
	sums := make(map[string]decimal.Decimal)
	for _, item := range items {
		t := date(item)
		if t.IsZero() {
			continue
		}
		key := t.UTC().Format(layout)
		sums[key] = sums[key].Add(value(item))
	}

	buckets := make([]Bucket, 0, len(sums))
	for k, v := range sums {
		buckets = append(buckets, Bucket{Key: k, Sum: v})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

// TopN returns the n items with the largest key, descending. Ties keep their
// original order.
func TopN[T any](items []T, n int, key func(T) decimal.Decimal) []T {
	if n <= 0 || len(items) == 0 {
		return []T{}
	}
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]).GreaterThan(key(sorted[j]))
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime reads the date formats the upstream API emits. Anything else yields
// the zero time so BucketByPeriod skips it.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
