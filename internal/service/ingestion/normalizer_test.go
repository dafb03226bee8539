package ingestion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/newsletter/internal/domain/models"
)

func TestNormalizeRow(t *testing.T) {
	row := Row{
		HeaderFundName:       "Growth Fund",
		HeaderSymbol:         "GRW",
		HeaderOneMonth:       "2.5",
		HeaderThreeMonth:     4.25,
		HeaderSixMonth:       " -1.5 ",
		HeaderTwelveMonth:    int64(12),
		HeaderYTD:            "10.1",
		HeaderTrackerAverage: "7",
		"Manager":            "ignored",
	}

	got := NormalizeRow(row)
	assert.Equal(t, models.FundPerformance{
		Name:   "Growth Fund",
		Symbol: "GRW",
		Returns: models.Returns{
			OneMonth:    2.5,
			ThreeMonth:  4.25,
			SixMonth:    -1.5,
			TwelveMonth: 12,
			YTD:         10.1,
		},
		TrackerAverage: 7,
	}, got)
}

func TestNormalizeRow_NumericFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{name: "blank", value: ""},
		{name: "whitespace", value: "   "},
		{name: "nil", value: nil},
		{name: "text", value: "n/a"},
		{name: "percent sign", value: "2.5%"},
		{name: "nan", value: math.NaN()},
		{name: "inf text", value: "Inf"},
		{name: "negative inf", value: math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRow(Row{HeaderOneMonth: tt.value, HeaderTrackerAverage: tt.value})
			assert.Zero(t, got.Returns.OneMonth)
			assert.Zero(t, got.TrackerAverage)
		})
	}
}

func TestNormalizeRow_MissingHeaders(t *testing.T) {
	got := NormalizeRow(Row{"Unrelated": "value"})
	assert.Equal(t, models.FundPerformance{}, got)
}

func TestNormalizeRows_PreservesOrder(t *testing.T) {
	rows := []Row{
		{HeaderFundName: "C"},
		{HeaderFundName: "A"},
		{HeaderFundName: "A"},
		{HeaderFundName: "B"},
	}

	got := NormalizeRows(rows)
	names := make([]string, 0, len(got))
	for _, r := range got {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"C", "A", "A", "B"}, names)

	assert.NotNil(t, NormalizeRows(nil))
	assert.Empty(t, NormalizeRows(nil))
}
