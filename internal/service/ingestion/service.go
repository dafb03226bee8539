package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/repository/mongodb"
	"github.com/mamadbah2/newsletter/internal/repository/sheets"
	"github.com/mamadbah2/newsletter/pkg/metrics"
)

const (
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMETypeXLS  = "application/vnd.ms-excel"

	sourceUpload = "upload"
	sourceSheets = "sheets"

	defaultStoreTimeout = 15 * time.Second
)

var (
	// ErrFileRequired is returned when the request carries no file.
	ErrFileRequired = fmt.Errorf("%w: no file uploaded", models.ErrBadRequest)
	// ErrUnsupportedFileType is returned for anything that is not an Excel workbook.
	ErrUnsupportedFileType = fmt.Errorf("%w: only Excel files (.xlsx or .xls) are accepted", models.ErrBadRequest)
	// ErrSpreadsheetRequired is returned when a Sheets import names no spreadsheet.
	ErrSpreadsheetRequired = fmt.Errorf("%w: spreadsheetId is required", models.ErrBadRequest)
	// ErrSheetsUnavailable is returned when Google Sheets import is not configured.
	ErrSheetsUnavailable = fmt.Errorf("%w: google sheets import is not configured", models.ErrUnavailable)
)

// CompanyFinder resolves the company a report is filed under.
type CompanyFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error)
}

// UploadInput carries one uploaded workbook and its request metadata.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	CompanyID   string
	UserID      string
	Type        string
}

// SheetImportInput names a Google Sheets range to ingest.
type SheetImportInput struct {
	SpreadsheetID string
	Range         string
	CompanyID     string
	UserID        string
	Type          string
}

// Service runs the ingestion pipeline: decode, normalize, assemble, persist.
type Service struct {
	reports      mongodb.ReportStore
	companies    CompanyFinder
	sheets       sheets.Source
	logger       *zap.Logger
	now          func() time.Time
	storeTimeout time.Duration
}

// NewService wires an ingestion service. sheetSource may be nil, which
// disables ImportSheet.
func NewService(reports mongodb.ReportStore, companies CompanyFinder, sheetSource sheets.Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reports:      reports,
		companies:    companies,
		sheets:       sheetSource,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		storeTimeout: defaultStoreTimeout,
	}
}

// CheckFileType accepts .xlsx/.xls files, or files declared with an Excel MIME
// type. It runs before any decoding is attempted.
func CheckFileType(filename, contentType string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return nil
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mediaType == MIMETypeXLSX || mediaType == MIMETypeXLS {
		return nil
	}

	return ErrUnsupportedFileType
}

// Ingest stores one uploaded workbook as a new report.
func (s *Service) Ingest(ctx context.Context, in UploadInput) (*models.Report, error) {
	if strings.TrimSpace(in.CompanyID) == "" {
		s.observe(sourceUpload, "rejected")
		return nil, ErrCompanyRequired
	}
	if in.Body == nil {
		s.observe(sourceUpload, "rejected")
		return nil, ErrFileRequired
	}
	if err := CheckFileType(in.Filename, in.ContentType); err != nil {
		s.observe(sourceUpload, "rejected")
		return nil, err
	}

	rows, err := DecodeWorkbook(in.Body)
	if err != nil {
		s.logger.Warn("spreadsheet decode failed",
			zap.String("filename", in.Filename),
			zap.String("company_id", in.CompanyID),
			zap.Error(err))
		s.observe(sourceUpload, "decode_error")
		return nil, err
	}

	return s.persist(ctx, sourceUpload, rows, in.CompanyID, in.UserID, in.Type)
}

// ImportSheet stores a Google Sheets range as a new report.
func (s *Service) ImportSheet(ctx context.Context, in SheetImportInput) (*models.Report, error) {
	if s.sheets == nil {
		return nil, ErrSheetsUnavailable
	}
	if strings.TrimSpace(in.CompanyID) == "" {
		s.observe(sourceSheets, "rejected")
		return nil, ErrCompanyRequired
	}
	if strings.TrimSpace(in.SpreadsheetID) == "" {
		s.observe(sourceSheets, "rejected")
		return nil, ErrSpreadsheetRequired
	}

	values, err := s.sheets.ReadRange(ctx, in.SpreadsheetID, in.Range)
	if err != nil {
		s.observe(sourceSheets, "source_error")
		return nil, fmt.Errorf("read google sheet: %w", err)
	}

	return s.persist(ctx, sourceSheets, RowsFromValues(values), in.CompanyID, in.UserID, in.Type)
}

func (s *Service) persist(ctx context.Context, source string, rows []Row, companyID, userID, reportType string) (*models.Report, error) {
	records := NormalizeRows(rows)

	report, err := Assemble(records, companyID, userID, models.ReportType(reportType), s.now())
	if err != nil {
		s.observe(source, "rejected")
		return nil, err
	}

	// Once decoding has produced a report it is stored even if the client
	// goes away.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	if _, err := s.companies.FindByID(storeCtx, report.Company); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.observe(source, "rejected")
		} else {
			s.observe(source, "store_error")
		}
		return nil, err
	}

	if err := s.reports.Insert(storeCtx, report); err != nil {
		s.logger.Error("failed to store report",
			zap.String("source", source),
			zap.String("company_id", companyID),
			zap.Error(err))
		s.observe(source, "store_error")
		return nil, err
	}

	s.observe(source, "stored")
	metrics.IngestedRows.Observe(float64(len(report.FundData)))
	s.logger.Info("report ingested",
		zap.String("source", source),
		zap.String("report_id", report.ID.Hex()),
		zap.String("company_id", companyID),
		zap.String("user_id", userID),
		zap.Int("rows", len(report.FundData)))

	return report, nil
}

func (s *Service) observe(source, outcome string) {
	metrics.ReportsIngestedTotal.WithLabelValues(source, outcome).Inc()
}
