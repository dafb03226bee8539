package models

// Returns holds the trailing-period returns of one fund. Every field is always
// present; values that could not be read from the source are stored as zero.
type Returns struct {
	OneMonth    float64 `bson:"oneMonth" json:"oneMonth"`
	ThreeMonth  float64 `bson:"threeMonth" json:"threeMonth"`
	SixMonth    float64 `bson:"sixMonth" json:"sixMonth"`
	TwelveMonth float64 `bson:"twelveMonth" json:"twelveMonth"`
	YTD         float64 `bson:"ytd" json:"ytd"`
}

// FundPerformance is one normalized spreadsheet row. It only ever lives inside
// the Report that embeds it.
type FundPerformance struct {
	Name           string  `bson:"name" json:"name"`
	Symbol         string  `bson:"symbol,omitempty" json:"symbol"`
	Returns        Returns `bson:"returns" json:"returns"`
	TrackerAverage float64 `bson:"trackerAverage" json:"trackerAverage"`
}
