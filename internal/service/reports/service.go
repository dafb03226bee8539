package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/repository/mongodb"
	"github.com/mamadbah2/newsletter/pkg/clients/pdf"
	"github.com/mamadbah2/newsletter/pkg/pagination"
)

var (
	// ErrInvalidID is returned for identifiers that are not object ids.
	ErrInvalidID = fmt.Errorf("%w: invalid identifier", models.ErrBadRequest)
	// ErrEmptyUpdate is returned when a patch carries no fields.
	ErrEmptyUpdate = fmt.Errorf("%w: no fields to update", models.ErrBadRequest)
	// ErrFieldNotAllowed is returned when a patch names a field outside the allow-list.
	ErrFieldNotAllowed = fmt.Errorf("%w: field is not updatable", models.ErrBadRequest)
	// ErrPDFUnavailable is returned when no renderer is configured.
	ErrPDFUnavailable = fmt.Errorf("%w: pdf rendering is not configured", models.ErrUnavailable)
)

// Patchable report fields. "content" is the dashboard's name for commentary.
const (
	FieldContent         = "content"
	FieldCommentary      = "commentary"
	FieldModelPortfolios = "modelPortfolios"
	FieldFundData        = "fundData"
	FieldStatus          = "status"
	FieldType            = "type"
)

var patchable = map[string]bool{
	FieldContent:         true,
	FieldCommentary:      true,
	FieldModelPortfolios: true,
	FieldFundData:        true,
	FieldStatus:          true,
	FieldType:            true,
}

// CompanyReader is the part of the company store reports need.
type CompanyReader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Company, error)
}

// UserReader resolves report creators.
type UserReader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// CompanyRef is the expanded company reference on a report.
type CompanyRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
	Logo string             `json:"logo,omitempty"`
}

// UserRef is the expanded creator reference on a report.
type UserRef struct {
	ID    primitive.ObjectID `json:"id"`
	Email string             `json:"email,omitempty"`
	Role  models.Role        `json:"role,omitempty"`
}

// ReportView is a report with its references expanded for the dashboard.
type ReportView struct {
	ID              primitive.ObjectID       `json:"id"`
	Company         CompanyRef               `json:"company"`
	Date            time.Time                `json:"date"`
	Type            models.ReportType        `json:"type"`
	Status          models.ReportStatus      `json:"status"`
	FundData        []models.FundPerformance `json:"fundData"`
	Commentary      models.Commentary        `json:"commentary"`
	ModelPortfolios models.ReportPortfolios  `json:"modelPortfolios"`
	PDFURL          string                   `json:"pdfUrl,omitempty"`
	CreatedBy       UserRef                  `json:"createdBy"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

// ListFilter narrows a listing. Empty fields match everything.
type ListFilter struct {
	Company string `form:"company"`
	Type    string `form:"type"`
	Status  string `form:"status"`
}

// ListResult is one page of reports.
type ListResult struct {
	Items      []ReportView        `json:"items"`
	Pagination pagination.PageInfo `json:"pagination"`
}

// Service implements the report management flows that follow ingestion.
type Service struct {
	reports   mongodb.ReportStore
	companies CompanyReader
	users     UserReader
	renderer  pdf.Renderer
	logger    *zap.Logger
}

// NewService wires a report service. renderer may be nil, which disables
// ExportPDF.
func NewService(reports mongodb.ReportStore, companies CompanyReader, users UserReader, renderer pdf.Renderer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reports:   reports,
		companies: companies,
		users:     users,
		renderer:  renderer,
		logger:    logger,
	}
}

// List returns one page of reports, newest first, with company names.
func (s *Service) List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error) {
	page.Normalize()

	query := mongodb.ReportQuery{Offset: page.Offset(), Limit: int64(page.Limit)}
	if c := strings.TrimSpace(filter.Company); c != "" {
		id, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			return nil, fmt.Errorf("%w: company", ErrInvalidID)
		}
		query.Company = &id
	}
	if filter.Type != "" {
		query.Type = models.ReportType(filter.Type)
		if !query.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown report type %q", models.ErrBadRequest, filter.Type)
		}
	}
	if filter.Status != "" {
		query.Status = models.ReportStatus(filter.Status)
		if !query.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown report status %q", models.ErrBadRequest, filter.Status)
		}
	}

	found, total, err := s.reports.Find(ctx, query)
	if err != nil {
		return nil, err
	}

	companies, err := s.companies.FindByIDs(ctx, companyIDs(found))
	if err != nil {
		return nil, err
	}

	items := make([]ReportView, 0, len(found))
	for i := range found {
		company := companies[found[i].Company]
		items = append(items, newView(&found[i], CompanyRef{ID: found[i].Company, Name: company.Name}, UserRef{ID: found[i].CreatedBy}))
	}

	return &ListResult{Items: items, Pagination: pagination.NewPageInfo(page, total)}, nil
}

// Get returns one report with its company and creator expanded.
func (s *Service) Get(ctx context.Context, rawID string) (*ReportView, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.expand(ctx, report)
}

// Patch applies an allow-listed partial update. A body naming any other
// field is rejected without applying anything.
func (s *Service) Patch(ctx context.Context, rawID string, body map[string]json.RawMessage) (*ReportView, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	update, err := buildUpdate(body)
	if err != nil {
		return nil, err
	}

	report, err := s.reports.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("report updated", zap.String("report_id", id.Hex()), zap.Strings("fields", sortedKeys(body)))
	return s.expand(ctx, report)
}

// Delete removes a report.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	if err := s.reports.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("report deleted", zap.String("report_id", id.Hex()))
	return nil
}

// ExportPDF renders the report and records the document location on it.
func (s *Service) ExportPDF(ctx context.Context, rawID string) (string, error) {
	if s.renderer == nil {
		return "", ErrPDFUnavailable
	}

	id, err := parseID(rawID)
	if err != nil {
		return "", err
	}

	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	company, err := s.companies.FindByID(ctx, report.Company)
	if err != nil {
		return "", err
	}

	resp, err := s.renderer.Render(ctx, pdf.RenderRequest{
		ReportID:        report.ID.Hex(),
		CompanyName:     company.Name,
		CompanyLogo:     company.Logo,
		Type:            report.Type,
		Date:            report.Date,
		FundData:        report.FundData,
		Commentary:      report.Commentary,
		ModelPortfolios: report.ModelPortfolios,
	})
	if err != nil {
		s.logger.Error("failed to render report pdf", zap.String("report_id", id.Hex()), zap.Error(err))
		return "", err
	}

	if _, err := s.reports.Update(ctx, id, mongodb.ReportUpdate{PDFURL: &resp.URL}); err != nil {
		return "", err
	}

	s.logger.Info("report pdf rendered", zap.String("report_id", id.Hex()), zap.String("url", resp.URL))
	return resp.URL, nil
}

func (s *Service) expand(ctx context.Context, report *models.Report) (*ReportView, error) {
	companyRef := CompanyRef{ID: report.Company}
	company, err := s.companies.FindByID(ctx, report.Company)
	switch {
	case err == nil:
		companyRef.Name = company.Name
		companyRef.Logo = company.Logo
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	userRef := UserRef{ID: report.CreatedBy}
	user, err := s.users.FindByID(ctx, report.CreatedBy)
	switch {
	case err == nil:
		userRef.Email = user.Email
		userRef.Role = user.Role
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	view := newView(report, companyRef, userRef)
	return &view, nil
}

func buildUpdate(body map[string]json.RawMessage) (mongodb.ReportUpdate, error) {
	var update mongodb.ReportUpdate
	if len(body) == 0 {
		return update, ErrEmptyUpdate
	}

	for _, key := range sortedKeys(body) {
		if !patchable[key] {
			return update, fmt.Errorf("%w: %s", ErrFieldNotAllowed, key)
		}
	}

	_, hasContent := body[FieldContent]
	_, hasCommentary := body[FieldCommentary]
	if hasContent && hasCommentary {
		return update, fmt.Errorf("%w: send either content or commentary, not both", models.ErrBadRequest)
	}

	for key, raw := range body {
		switch key {
		case FieldContent, FieldCommentary:
			var commentary models.Commentary
			if err := decodeField(key, raw, &commentary); err != nil {
				return update, err
			}
			update.Commentary = &commentary
		case FieldModelPortfolios:
			var portfolios models.ReportPortfolios
			if err := decodeField(key, raw, &portfolios); err != nil {
				return update, err
			}
			update.ModelPortfolios = &portfolios
		case FieldFundData:
			var funds []models.FundPerformance
			if err := decodeField(key, raw, &funds); err != nil {
				return update, err
			}
			if funds == nil {
				funds = []models.FundPerformance{}
			}
			update.FundData = &funds
		case FieldStatus:
			var status models.ReportStatus
			if err := decodeField(key, raw, &status); err != nil {
				return update, err
			}
			if !status.Valid() {
				return update, fmt.Errorf("%w: unknown report status %q", models.ErrBadRequest, status)
			}
			update.Status = &status
		case FieldType:
			var reportType models.ReportType
			if err := decodeField(key, raw, &reportType); err != nil {
				return update, err
			}
			if !reportType.Valid() {
				return update, fmt.Errorf("%w: unknown report type %q", models.ErrBadRequest, reportType)
			}
			update.Type = &reportType
		}
	}

	return update, nil
}

func decodeField(key string, raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: invalid %s: %v", models.ErrBadRequest, key, err)
	}
	return nil
}

func newView(r *models.Report, company CompanyRef, creator UserRef) ReportView {
	return ReportView{
		ID:              r.ID,
		Company:         company,
		Date:            r.Date,
		Type:            r.Type,
		Status:          r.Status,
		FundData:        r.FundData,
		Commentary:      r.Commentary,
		ModelPortfolios: r.ModelPortfolios,
		PDFURL:          r.PDFURL,
		CreatedBy:       creator,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func companyIDs(reports []models.Report) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(reports))
	ids := make([]primitive.ObjectID, 0, len(reports))
	for _, r := range reports {
		if seen[r.Company] {
			continue
		}
		seen[r.Company] = true
		ids = append(ids, r.Company)
	}
	return ids
}

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func sortedKeys(body map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
