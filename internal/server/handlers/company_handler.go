package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/service/companies"
)

// CompanyManager manages companies and their templates.
type CompanyManager interface {
	Create(ctx context.Context, in companies.CreateInput) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	Get(ctx context.Context, id string) (*models.Company, error)
	Update(ctx context.Context, id string, body map[string]json.RawMessage) (*models.Company, error)
	UpdateTemplate(ctx context.Context, id string, in companies.TemplateInput) (*models.Company, error)
	Delete(ctx context.Context, id string) error
}

// CompanyHandler serves /api/companies.
type CompanyHandler struct {
	svc    CompanyManager
	logger *zap.Logger
}

// NewCompanyHandler constructs the HTTP handler adapter.
func NewCompanyHandler(svc CompanyManager, logger *zap.Logger) *CompanyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyHandler{svc: svc, logger: logger}
}

func (h *CompanyHandler) Create(c *gin.Context) {
	var in companies.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	company, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *CompanyHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Update(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	company, err := h.svc.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) UpdateTemplate(c *gin.Context) {
	var in companies.TemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	company, err := h.svc.UpdateTemplate(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Company deleted successfully"})
}
