package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sale struct {
	id   string
	at   string
	amt  int64
	kind string
}

func (s sale) date() time.Time        { return ParseTime(s.at) }
func (s sale) value() decimal.Decimal { return decimal.NewFromInt(s.amt) }

func TestCountBy(t *testing.T) {
	items := []sale{{kind: "pending"}, {kind: "paid"}, {kind: "pending"}}
	got := CountBy(items, func(s sale) string { return s.kind })
	assert.Equal(t, map[string]int{"pending": 2, "paid": 1}, got)

	assert.Empty(t, CountBy([]sale{}, func(s sale) string { return s.kind }))
}

func TestBucketByPeriod(t *testing.T) {
	items := []sale{
		{at: "2024-03-15T10:00:00Z", amt: 100},
		{at: "2024-03-02", amt: 50},
		{at: "2024-01-31T23:59:59Z", amt: 25},
		{at: "2023-12-31 08:00:00", amt: 10},
		{at: "not a date", amt: 999},
		{at: "", amt: 999},
	}

	tests := []struct {
		period Period
		want   []Bucket
	}{
		{Monthly, []Bucket{
			{Key: "2023-12", Sum: decimal.NewFromInt(10)},
			{Key: "2024-01", Sum: decimal.NewFromInt(25)},
			{Key: "2024-03", Sum: decimal.NewFromInt(150)},
		}},
		{Yearly, []Bucket{
			{Key: "2023", Sum: decimal.NewFromInt(10)},
			{Key: "2024", Sum: decimal.NewFromInt(175)},
		}},
		{Daily, []Bucket{
			{Key: "2023-12-31", Sum: decimal.NewFromInt(10)},
			{Key: "2024-01-31", Sum: decimal.NewFromInt(25)},
			{Key: "2024-03-02", Sum: decimal.NewFromInt(50)},
			{Key: "2024-03-15", Sum: decimal.NewFromInt(100)},
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			got := BucketByPeriod(items, tt.period, sale.date, sale.value)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Key, got[i].Key)
				assert.True(t, tt.want[i].Sum.Equal(got[i].Sum), "bucket %s: %s", got[i].Key, got[i].Sum)
			}
		})
	}
}

func TestBucketByPeriod_UsesUTC(t *testing.T) {
	items := []sale{{at: "2024-04-01T02:00:00+05:30", amt: 1}}
	got := BucketByPeriod(items, Monthly, sale.date, sale.value)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03", got[0].Key)
}

func TestTopN(t *testing.T) {
	items := []sale{
		{id: "a", amt: 10},
		{id: "b", amt: 30},
		{id: "c", amt: 30},
		{id: "d", amt: 5},
	}

	got := TopN(items, 3, sale.value)
	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.id
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	assert.Len(t, TopN(items, 10, sale.value), 4)
	assert.Empty(t, TopN(items, 0, sale.value))
	assert.Equal(t, "a", items[0].id, "input must not be reordered")
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"", Monthly, true},
		{"DAY", Daily, true},
		{"yearly", Yearly, true},
		{"weekly", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePeriod(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
