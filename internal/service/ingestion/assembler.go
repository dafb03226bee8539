package ingestion

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/newsletter/internal/domain/models"
)

var (
	// ErrCompanyRequired is returned when the upload does not name a company.
	ErrCompanyRequired = fmt.Errorf("%w: companyId is required", models.ErrBadRequest)
	// ErrInvalidCompanyID is returned when companyId is not an object id.
	ErrInvalidCompanyID = fmt.Errorf("%w: companyId is not a valid identifier", models.ErrBadRequest)
	// ErrInvalidReportType is returned for a type outside the known report types.
	ErrInvalidReportType = fmt.Errorf("%w: unknown report type", models.ErrBadRequest)
	// ErrMissingUser is returned when the uploading identity cannot be resolved.
	ErrMissingUser = fmt.Errorf("%w: uploading user is unknown", models.ErrUnauthorized)
)

// Assemble builds the report for one ingestion. It must succeed before
// anything is written so an invalid request never leaves an orphaned report.
func Assemble(records []models.FundPerformance, companyID, userID string, reportType models.ReportType, now time.Time) (*models.Report, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, ErrCompanyRequired
	}
	company, err := primitive.ObjectIDFromHex(companyID)
	if err != nil {
		return nil, ErrInvalidCompanyID
	}

	user, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrMissingUser
	}

	if reportType == "" {
		reportType = models.ReportTypeMonthly
	}
	if !reportType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReportType, reportType)
	}

	if records == nil {
		records = []models.FundPerformance{}
	}

	return &models.Report{
		Company:   company,
		Date:      now,
		Type:      reportType,
		Status:    models.ReportStatusDraft,
		FundData:  records,
		ModelPortfolios: models.ReportPortfolios{
			Aggressive:   []models.PortfolioHolding{},
			Moderate:     []models.PortfolioHolding{},
			Conservative: []models.PortfolioHolding{},
		},
		CreatedBy: user,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
