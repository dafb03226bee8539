package companies

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/newsletter/internal/domain/models"
)

var fullAllocation = decimal.NewFromInt(100)

// ErrInvalidAllocation is returned when a portfolio tier does not add up.
var ErrInvalidAllocation = fmt.Errorf("%w: portfolio allocations must total 100%%", models.ErrBadRequest)

// ValidatePortfolios checks every configured tier. An empty tier is
// unconfigured and passes; a non-empty one must name its funds, carry no
// negative weights and total exactly 100.
func ValidatePortfolios(p models.TemplatePortfolios) error {
	tiers := []struct {
		name        string
		allocations []models.Allocation
	}{
		{"aggressive", p.Aggressive},
		{"moderate", p.Moderate},
		{"conservative", p.Conservative},
	}

	for _, tier := range tiers {
		if err := validateTier(tier.name, tier.allocations); err != nil {
			return err
		}
	}
	return nil
}

func validateTier(name string, allocations []models.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, a := range allocations {
		if strings.TrimSpace(a.FundName) == "" {
			return fmt.Errorf("%w: %s portfolio has an allocation without a fund name", models.ErrBadRequest, name)
		}
		weight := decimal.NewFromFloat(a.Allocation)
		if weight.IsNegative() {
			return fmt.Errorf("%w: %s portfolio has a negative allocation for %s", models.ErrBadRequest, name, a.FundName)
		}
		total = total.Add(weight)
	}

	if !total.Equal(fullAllocation) {
		return fmt.Errorf("%w: %s totals %s", ErrInvalidAllocation, name, total.String())
	}
	return nil
}
