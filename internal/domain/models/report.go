package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportType enumerates the newsletter kinds a report can feed.
type ReportType string

const (
	ReportTypeMonthly   ReportType = "Monthly Newsletter"
	ReportTypeQuarterly ReportType = "Quarterly Review"
)

// Valid reports whether t is one of the known report types.
func (t ReportType) Valid() bool {
	return t == ReportTypeMonthly || t == ReportTypeQuarterly
}

// ReportStatus is owned by the editing flows; ingestion always creates drafts.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "Draft"
	ReportStatusPublished ReportStatus = "Published"
)

// Valid reports whether s is one of the known statuses.
func (s ReportStatus) Valid() bool {
	return s == ReportStatusDraft || s == ReportStatusPublished
}

// Commentary is the free text attached to a report after ingestion.
type Commentary struct {
	MarketSummary     string `bson:"marketSummary" json:"marketSummary"`
	IndexAnalysis     string `bson:"indexAnalysis" json:"indexAnalysis"`
	FixedIncomeUpdate string `bson:"fixedIncomeUpdate" json:"fixedIncomeUpdate"`
	CustomNotes       string `bson:"customNotes" json:"customNotes"`
}

// PortfolioHolding is one line of a report's model portfolio.
type PortfolioHolding struct {
	Fund        string  `bson:"fund" json:"fund"`
	Allocation  float64 `bson:"allocation" json:"allocation"`
	Performance float64 `bson:"performance" json:"performance"`
}

// ReportPortfolios groups holdings by risk tier.
type ReportPortfolios struct {
	Aggressive   []PortfolioHolding `bson:"aggressive" json:"aggressive"`
	Moderate     []PortfolioHolding `bson:"moderate" json:"moderate"`
	Conservative []PortfolioHolding `bson:"conservative" json:"conservative"`
}

// Report is the persisted result of one spreadsheet ingestion.
type Report struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Company         primitive.ObjectID `bson:"company" json:"company"`
	Date            time.Time          `bson:"date" json:"date"`
	Type            ReportType         `bson:"type" json:"type"`
	Status          ReportStatus       `bson:"status" json:"status"`
	FundData        []FundPerformance  `bson:"fundData" json:"fundData"`
	Commentary      Commentary         `bson:"commentary" json:"commentary"`
	ModelPortfolios ReportPortfolios   `bson:"modelPortfolios" json:"modelPortfolios"`
	PDFURL          string             `bson:"pdfUrl,omitempty" json:"pdfUrl,omitempty"`
	CreatedBy       primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
