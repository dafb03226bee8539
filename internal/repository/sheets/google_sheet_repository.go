package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/newsletter/internal/config"
)

// ErrSpreadsheetRequired is returned when no spreadsheet id is given.
var ErrSpreadsheetRequired = errors.New("spreadsheet id must not be empty")

// Source reads fund performance grids from Google Sheets.
type Source interface {
	ReadRange(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements Source using the official Google Sheets API.
type GoogleSheetRepository struct {
	service *sheetsapi.Service
	logger  *zap.Logger
}

// NewGoogleSheetRepository builds a read-only Google Sheets client.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	return newGoogleSheetRepository(ctx, logger,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope))
}

func newGoogleSheetRepository(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service: service,
		logger:  logger,
	}, nil
}

// ReadRange fetches a rectangular data range, header row first. An empty range
// reads the whole first sheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	if spreadsheetID == "" {
		return nil, ErrSpreadsheetRequired
	}

	if sheetRange == "" {
		first, err := r.firstSheetTitle(ctx, spreadsheetID)
		if err != nil {
			return nil, err
		}
		sheetRange = first
	}

	resp, err := r.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	r.logger.Debug("range read from sheet",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("range", sheetRange),
		zap.Int("rows", len(resp.Values)))

	return resp.Values, nil
}

func (r *GoogleSheetRepository) firstSheetTitle(ctx context.Context, spreadsheetID string) (string, error) {
	meta, err := r.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("load spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no sheets", spreadsheetID)
	}
	return meta.Sheets[0].Properties.Title, nil
}
