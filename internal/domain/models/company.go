package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Allocation is a single fund weight inside a template tier, in percent.
type Allocation struct {
	FundName   string  `bson:"fundName" json:"fundName"`
	Allocation float64 `bson:"allocation" json:"allocation"`
}

// TemplatePortfolios holds the model allocations per risk tier.
type TemplatePortfolios struct {
	Aggressive   []Allocation `bson:"aggressive" json:"aggressive"`
	Moderate     []Allocation `bson:"moderate" json:"moderate"`
	Conservative []Allocation `bson:"conservative" json:"conservative"`
}

// DefaultCommentary is the boilerplate text a company starts each newsletter with.
type DefaultCommentary struct {
	MarketSummary     string `bson:"marketSummary" json:"marketSummary"`
	IndexAnalysis     string `bson:"indexAnalysis" json:"indexAnalysis"`
	FixedIncomeUpdate string `bson:"fixedIncomeUpdate" json:"fixedIncomeUpdate"`
}

// Template is the per-company newsletter configuration.
type Template struct {
	ModelPortfolios   TemplatePortfolios `bson:"modelPortfolios" json:"modelPortfolios"`
	DefaultCommentary DefaultCommentary  `bson:"defaultCommentary" json:"defaultCommentary"`
}

// Company is a client whose reports and template are managed here.
type Company struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Logo      string             `bson:"logo,omitempty" json:"logo,omitempty"`
	Template  Template           `bson:"template" json:"template"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
