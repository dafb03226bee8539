package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/repository/mongodb"
	"github.com/mamadbah2/newsletter/pkg/clients/pdf"
	"github.com/mamadbah2/newsletter/pkg/pagination"
)

type memoryReports struct {
	items     map[primitive.ObjectID]*models.Report
	lastQuery mongodb.ReportQuery
	updates   int
}

func (m *memoryReports) Insert(_ context.Context, r *models.Report) error {
	m.items[r.ID] = r
	return nil
}

func (m *memoryReports) Find(_ context.Context, q mongodb.ReportQuery) ([]models.Report, int64, error) {
	m.lastQuery = q
	out := []models.Report{}
	for _, r := range m.items {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (m *memoryReports) FindByID(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id.Hex(), models.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (m *memoryReports) Update(_ context.Context, id primitive.ObjectID, u mongodb.ReportUpdate) (*models.Report, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id.Hex(), models.ErrNotFound)
	}
	m.updates++
	if u.Commentary != nil {
		r.Commentary = *u.Commentary
	}
	if u.ModelPortfolios != nil {
		r.ModelPortfolios = *u.ModelPortfolios
	}
	if u.FundData != nil {
		r.FundData = *u.FundData
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Type != nil {
		r.Type = *u.Type
	}
	if u.PDFURL != nil {
		r.PDFURL = *u.PDFURL
	}
	cp := *r
	return &cp, nil
}

func (m *memoryReports) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("report %s: %w", id.Hex(), models.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

type memoryCompanies map[primitive.ObjectID]models.Company

func (m memoryCompanies) FindByID(_ context.Context, id primitive.ObjectID) (*models.Company, error) {
	c, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", id.Hex(), models.ErrNotFound)
	}
	return &c, nil
}

func (m memoryCompanies) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Company, error) {
	out := map[primitive.ObjectID]models.Company{}
	for _, id := range ids {
		if c, ok := m[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type memoryUsers map[primitive.ObjectID]models.User

func (m memoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), models.ErrNotFound)
	}
	return &u, nil
}

type fakeRenderer struct {
	got renderCall
	url string
	err error
}

type renderCall struct {
	calls int
	req   pdf.RenderRequest
}

func (f *fakeRenderer) Render(_ context.Context, req pdf.RenderRequest) (*pdf.RenderResponse, error) {
	f.got.calls++
	f.got.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &pdf.RenderResponse{URL: f.url}, nil
}

type fixture struct {
	svc      *Service
	reports  *memoryReports
	report   *models.Report
	company  models.Company
	user     models.User
	renderer *fakeRenderer
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	company := models.Company{ID: primitive.NewObjectID(), Name: "Acme Advisors", Logo: "https://cdn.example.com/acme.png"}
	user := models.User{ID: primitive.NewObjectID(), Email: "ops@example.com", Role: models.RoleUser}
	report := &models.Report{
		ID:        primitive.NewObjectID(),
		Company:   company.ID,
		Date:      time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Type:      models.ReportTypeMonthly,
		Status:    models.ReportStatusDraft,
		FundData:  []models.FundPerformance{{Name: "Growth Fund", Symbol: "GRW"}},
		CreatedBy: user.ID,
	}

	reports := &memoryReports{items: map[primitive.ObjectID]*models.Report{report.ID: report}}
	renderer := &fakeRenderer{url: "https://files.example.com/report.pdf"}
	svc := NewService(reports,
		memoryCompanies{company.ID: company},
		memoryUsers{user.ID: user},
		renderer,
		zaptest.NewLogger(t))

	return fixture{svc: svc, reports: reports, report: report, company: company, user: user, renderer: renderer}
}

func body(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestService_List(t *testing.T) {
	fx := newFixture(t)

	result, err := fx.svc.List(context.Background(), ListFilter{
		Company: fx.company.ID.Hex(),
		Type:    string(models.ReportTypeMonthly),
		Status:  string(models.ReportStatusDraft),
	}, pagination.Params{Page: 2, Limit: 5})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "Acme Advisors", result.Items[0].Company.Name)
	assert.Empty(t, result.Items[0].Company.Logo)
	assert.Equal(t, fx.user.ID, result.Items[0].CreatedBy.ID)
	assert.Empty(t, result.Items[0].CreatedBy.Email)

	assert.Equal(t, int64(5), fx.reports.lastQuery.Offset)
	assert.Equal(t, int64(5), fx.reports.lastQuery.Limit)
	require.NotNil(t, fx.reports.lastQuery.Company)
	assert.Equal(t, fx.company.ID, *fx.reports.lastQuery.Company)
	assert.Equal(t, 2, result.Pagination.Page)
	assert.Equal(t, int64(1), result.Pagination.TotalCount)
}

func TestService_List_Defaults(t *testing.T) {
	fx := newFixture(t)

	result, err := fx.svc.List(context.Background(), ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(pagination.DefaultLimit), fx.reports.lastQuery.Limit)
	assert.Nil(t, fx.reports.lastQuery.Company)
	assert.Equal(t, 1, result.Pagination.Page)
}

func TestService_List_InvalidFilters(t *testing.T) {
	fx := newFixture(t)

	for _, filter := range []ListFilter{
		{Company: "acme"},
		{Type: "Weekly"},
		{Status: "Archived"},
	} {
		_, err := fx.svc.List(context.Background(), filter, pagination.Params{})
		assert.True(t, errors.Is(err, models.ErrBadRequest), "filter %+v", filter)
	}
}

func TestService_Get(t *testing.T) {
	fx := newFixture(t)

	view, err := fx.svc.Get(context.Background(), fx.report.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, fx.company.Logo, view.Company.Logo)
	assert.Equal(t, "ops@example.com", view.CreatedBy.Email)
	assert.Equal(t, models.RoleUser, view.CreatedBy.Role)

	_, err = fx.svc.Get(context.Background(), primitive.NewObjectID().Hex())
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = fx.svc.Get(context.Background(), "not-an-id")
	assert.True(t, errors.Is(err, ErrInvalidID))
}

func TestService_Patch(t *testing.T) {
	fx := newFixture(t)

	view, err := fx.svc.Patch(context.Background(), fx.report.ID.Hex(), body(t, `{
		"content": {"marketSummary": "Equities rallied."},
		"status": "Published",
		"type": "Quarterly Review",
		"modelPortfolios": {"aggressive": [{"fund": "Growth Fund", "allocation": 100, "performance": 2.5}]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Equities rallied.", view.Commentary.MarketSummary)
	assert.Equal(t, models.ReportStatusPublished, view.Status)
	assert.Equal(t, models.ReportTypeQuarterly, view.Type)
	require.Len(t, view.ModelPortfolios.Aggressive, 1)
	assert.Equal(t, 100.0, view.ModelPortfolios.Aggressive[0].Allocation)
	assert.Equal(t, "Acme Advisors", view.Company.Name)
}

func TestService_Patch_ReplacesFundData(t *testing.T) {
	fx := newFixture(t)

	view, err := fx.svc.Patch(context.Background(), fx.report.ID.Hex(), body(t, `{"fundData": null}`))
	require.NoError(t, err)
	assert.NotNil(t, view.FundData)
	assert.Empty(t, view.FundData)
}

func TestService_Patch_RejectsWholesale(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown field", raw: `{"status": "Published", "company": "x"}`},
		{name: "empty body", raw: `{}`},
		{name: "bad status", raw: `{"status": "Archived"}`},
		{name: "bad type", raw: `{"type": "Weekly"}`},
		{name: "malformed commentary", raw: `{"commentary": "plain text"}`},
		{name: "content and commentary", raw: `{"content": {}, "commentary": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			_, err := fx.svc.Patch(context.Background(), fx.report.ID.Hex(), body(t, tt.raw))
			assert.True(t, errors.Is(err, models.ErrBadRequest), "got %v", err)
			assert.Zero(t, fx.reports.updates)
			assert.Equal(t, models.ReportStatusDraft, fx.report.Status)
		})
	}
}

func TestService_Patch_Missing(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Patch(context.Background(), primitive.NewObjectID().Hex(), body(t, `{"status": "Published"}`))
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestService_Delete(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.svc.Delete(context.Background(), fx.report.ID.Hex()))
	assert.Empty(t, fx.reports.items)

	err := fx.svc.Delete(context.Background(), fx.report.ID.Hex())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestService_ExportPDF(t *testing.T) {
	fx := newFixture(t)

	url, err := fx.svc.ExportPDF(context.Background(), fx.report.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/report.pdf", url)
	assert.Equal(t, url, fx.report.PDFURL)
	assert.Equal(t, "Acme Advisors", fx.renderer.got.req.CompanyName)
	assert.Equal(t, fx.report.FundData, fx.renderer.got.req.FundData)
}

func TestService_ExportPDF_Failures(t *testing.T) {
	fx := newFixture(t)
	fx.renderer.err = errors.New("renderer down")

	_, err := fx.svc.ExportPDF(context.Background(), fx.report.ID.Hex())
	require.Error(t, err)
	assert.Empty(t, fx.report.PDFURL)

	fx.svc.renderer = nil
	_, err = fx.svc.ExportPDF(context.Background(), fx.report.ID.Hex())
	assert.True(t, errors.Is(err, ErrPDFUnavailable))
	assert.True(t, errors.Is(err, models.ErrUnavailable))
}
