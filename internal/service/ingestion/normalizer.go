package ingestion

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mamadbah2/newsletter/internal/domain/models"
)

// Recognized column headers. Matching is exact and case-sensitive.
const (
	HeaderFundName       = "Fund Name"
	HeaderSymbol         = "Symbol"
	HeaderOneMonth       = "1 Mo Return"
	HeaderThreeMonth     = "3 Mo Return"
	HeaderSixMonth       = "6 Mo Return"
	HeaderTwelveMonth    = "12 Mo Return"
	HeaderYTD            = "YTD Return"
	HeaderTrackerAverage = "Tracker Average"
)

var (
	errEmptyValue = errors.New("empty numeric value")
	errNotFinite  = errors.New("numeric value is not finite")
)

// NormalizeRow maps one decoded row onto a FundPerformance. Unknown headers are
// ignored. Numeric cells that are missing, blank, non-numeric or not finite
// become zero, so the result never carries NaN or Inf.
func NormalizeRow(row Row) models.FundPerformance {
	return models.FundPerformance{
		Name:   text(row, HeaderFundName),
		Symbol: text(row, HeaderSymbol),
		Returns: models.Returns{
			OneMonth:    number(row, HeaderOneMonth),
			ThreeMonth:  number(row, HeaderThreeMonth),
			SixMonth:    number(row, HeaderSixMonth),
			TwelveMonth: number(row, HeaderTwelveMonth),
			YTD:         number(row, HeaderYTD),
		},
		TrackerAverage: number(row, HeaderTrackerAverage),
	}
}

// NormalizeRows normalizes every row, preserving order.
func NormalizeRows(rows []Row) []models.FundPerformance {
	records := make([]models.FundPerformance, 0, len(rows))
	for _, row := range rows {
		records = append(records, NormalizeRow(row))
	}
	return records
}

func text(row Row, header string) string {
	value, ok := row[header]
	if !ok {
		return ""
	}
	return cellText(value)
}

func number(row Row, header string) float64 {
	value, ok := row[header]
	if !ok {
		return 0
	}
	f, err := parseFloat(value)
	if err != nil {
		return 0
	}
	return f
}

func parseFloat(value interface{}) (float64, error) {
	var f float64

	switch v := value.(type) {
	case nil:
		return 0, errEmptyValue
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		str := strings.TrimSpace(fmt.Sprint(value))
		if str == "" {
			return 0, errEmptyValue
		}
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}
