package pdf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/newsletter/internal/config"
	"github.com/mamadbah2/newsletter/internal/domain/models"
)

// Renderer turns a report into a hosted PDF document.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResponse, error)
}

// APIClient is a resty-backed implementation of Renderer.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a renderer client using the provided configuration values.
func NewClient(cfg config.PDFConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &APIClient{httpClient: restyClient}
}

// RenderRequest is the document the renderer lays out.
type RenderRequest struct {
	ReportID        string                   `json:"reportId"`
	CompanyName     string                   `json:"companyName"`
	CompanyLogo     string                   `json:"companyLogo,omitempty"`
	Type            models.ReportType        `json:"type"`
	Date            time.Time                `json:"date"`
	FundData        []models.FundPerformance `json:"fundData"`
	Commentary      models.Commentary        `json:"commentary"`
	ModelPortfolios models.ReportPortfolios  `json:"modelPortfolios"`
}

// RenderResponse carries the location of the rendered document.
type RenderResponse struct {
	URL string `json:"url"`
}

// apiError represents a renderer error payload.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *APIClient) Render(ctx context.Context, req RenderRequest) (*RenderResponse, error) {
	result := new(RenderResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		SetError(apiErr).
		Post("/render")
	if err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return nil, fmt.Errorf("pdf renderer error: code=%d, message=%s", resp.StatusCode(), message)
	}

	if result.URL == "" {
		return nil, errors.New("pdf renderer returned no document url")
	}

	return result, nil
}
