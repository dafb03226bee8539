package companies

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/newsletter/internal/domain/models"
)

func TestValidatePortfolios(t *testing.T) {
	tests := []struct {
		name    string
		p       models.TemplatePortfolios
		wantErr bool
	}{
		{name: "unconfigured", p: models.TemplatePortfolios{}},
		{
			name: "exact totals",
			p: models.TemplatePortfolios{
				Aggressive:   []models.Allocation{{FundName: "Growth Fund", Allocation: 100}},
				Moderate:     []models.Allocation{{FundName: "Growth Fund", Allocation: 60}, {FundName: "Bond Fund", Allocation: 40}},
				Conservative: []models.Allocation{{FundName: "A", Allocation: 33.3}, {FundName: "B", Allocation: 33.3}, {FundName: "C", Allocation: 33.4}},
			},
		},
		{
			name: "fractional weights without float drift",
			p: models.TemplatePortfolios{
				Moderate: []models.Allocation{{FundName: "A", Allocation: 0.1}, {FundName: "B", Allocation: 0.2}, {FundName: "C", Allocation: 99.7}},
			},
		},
		{
			name:    "under",
			p:       models.TemplatePortfolios{Aggressive: []models.Allocation{{FundName: "Growth Fund", Allocation: 99.9}}},
			wantErr: true,
		},
		{
			name:    "over",
			p:       models.TemplatePortfolios{Conservative: []models.Allocation{{FundName: "A", Allocation: 60}, {FundName: "B", Allocation: 41}}},
			wantErr: true,
		},
		{
			name:    "negative weight",
			p:       models.TemplatePortfolios{Moderate: []models.Allocation{{FundName: "A", Allocation: 120}, {FundName: "B", Allocation: -20}}},
			wantErr: true,
		},
		{
			name:    "missing fund name",
			p:       models.TemplatePortfolios{Moderate: []models.Allocation{{Allocation: 100}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePortfolios(tt.p)
			if tt.wantErr {
				assert.True(t, errors.Is(err, models.ErrBadRequest), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePortfolios_ReportsTotal(t *testing.T) {
	err := ValidatePortfolios(models.TemplatePortfolios{Aggressive: []models.Allocation{{FundName: "A", Allocation: 95.5}}})
	assert.True(t, errors.Is(err, ErrInvalidAllocation))
	assert.Contains(t, err.Error(), "aggressive totals 95.5")
}
