package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/server/middleware"
	"github.com/mamadbah2/newsletter/internal/service/ingestion"
	"github.com/mamadbah2/newsletter/internal/service/reports"
	"github.com/mamadbah2/newsletter/internal/uploads"
	"github.com/mamadbah2/newsletter/pkg/pagination"
)

// multipartOverhead covers form fields and part headers sent alongside the file.
const multipartOverhead = 64 << 10

// Ingester turns uploads and sheets into stored reports.
type Ingester interface {
	Ingest(ctx context.Context, in ingestion.UploadInput) (*models.Report, error)
	ImportSheet(ctx context.Context, in ingestion.SheetImportInput) (*models.Report, error)
}

// ReportManager covers the report flows after ingestion.
type ReportManager interface {
	List(ctx context.Context, filter reports.ListFilter, page pagination.Params) (*reports.ListResult, error)
	Get(ctx context.Context, id string) (*reports.ReportView, error)
	Patch(ctx context.Context, id string, body map[string]json.RawMessage) (*reports.ReportView, error)
	Delete(ctx context.Context, id string) error
	ExportPDF(ctx context.Context, id string) (string, error)
}

// ReportHandler serves /api/reports.
type ReportHandler struct {
	ingest   Ingester
	reports  ReportManager
	stager   *uploads.Stager
	maxBytes int64
	logger   *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(ingest Ingester, reports ReportManager, stager *uploads.Stager, maxBytes int64, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{ingest: ingest, reports: reports, stager: stager, maxBytes: maxBytes, logger: logger}
}

type sheetImportRequest struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Range         string `json:"range"`
	CompanyID     string `json:"companyId"`
	Type          string `json:"type"`
}

// Upload ingests a multipart spreadsheet upload.
func (h *ReportHandler) Upload(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": h.sizeMessage()})
			return
		}
		badRequest(c, "No file uploaded")
		return
	}

	companyID := strings.TrimSpace(c.PostForm("companyId"))
	if companyID == "" {
		badRequest(c, "Company ID is required")
		return
	}

	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		badRequest(c, h.sizeMessage())
		return
	}

	if err := ingestion.CheckFileType(fh.Filename, fh.Header.Get("Content-Type")); err != nil {
		writeError(c, h.logger, "Error processing file", err)
		return
	}

	staged, err := h.stager.Stage(fh)
	if err != nil {
		writeError(c, h.logger, "Error processing file", err)
		return
	}
	defer staged.Release()

	f, err := staged.Open()
	if err != nil {
		writeError(c, h.logger, "Error processing file", err)
		return
	}
	defer f.Close()

	report, err := h.ingest.Ingest(c.Request.Context(), ingestion.UploadInput{
		Filename:    staged.Filename,
		ContentType: staged.ContentType,
		Body:        f,
		CompanyID:   companyID,
		UserID:      user.ID.Hex(),
		Type:        c.PostForm("type"),
	})
	if err != nil {
		writeError(c, h.logger, "Error processing file", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "File uploaded and processed successfully",
		"reportId": report.ID.Hex(),
		"fundData": report.FundData,
	})
}

// ImportSheet ingests a Google Sheets range.
func (h *ReportHandler) ImportSheet(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	var req sheetImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	report, err := h.ingest.ImportSheet(c.Request.Context(), ingestion.SheetImportInput{
		SpreadsheetID: req.SpreadsheetID,
		Range:         req.Range,
		CompanyID:     req.CompanyID,
		UserID:        user.ID.Hex(),
		Type:          req.Type,
	})
	if err != nil {
		writeError(c, h.logger, "Error importing sheet", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Sheet imported successfully",
		"reportId": report.ID.Hex(),
		"fundData": report.FundData,
	})
}

// List returns a page of reports.
func (h *ReportHandler) List(c *gin.Context) {
	var filter reports.ListFilter
	var page pagination.Params
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid filter")
		return
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, "invalid pagination parameters")
		return
	}

	result, err := h.reports.List(c.Request.Context(), filter, page)
	if err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get returns one report.
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Patch applies an allow-listed partial update.
func (h *ReportHandler) Patch(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	report, err := h.reports.Patch(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Delete removes one report.
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report deleted successfully"})
}

// ExportPDF renders the report to PDF.
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	url, err := h.reports.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "Error generating PDF", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pdfUrl": url})
}

func (h *ReportHandler) sizeMessage() string {
	return fmt.Sprintf("File exceeds the %d byte limit", h.maxBytes)
}
