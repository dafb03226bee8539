package pdf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/newsletter/internal/config"
	"github.com/mamadbah2/newsletter/internal/domain/models"
)

func TestAPIClient_Render(t *testing.T) {
	var got RenderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/render", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://files.example.com/r1.pdf"}`))
	}))
	defer server.Close()

	client := NewClient(config.PDFConfig{BaseURL: server.URL + "/", Token: "secret", Timeout: time.Second})
	resp, err := client.Render(context.Background(), RenderRequest{
		ReportID:    "r1",
		CompanyName: "Acme Advisors",
		Type:        models.ReportTypeMonthly,
		FundData:    []models.FundPerformance{{Name: "Growth Fund", Returns: models.Returns{OneMonth: 2.5}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/r1.pdf", resp.URL)
	assert.Equal(t, "r1", got.ReportID)
	assert.Equal(t, 2.5, got.FundData[0].Returns.OneMonth)
}

func TestAPIClient_RenderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"template missing"}`))
	}))
	defer server.Close()

	client := NewClient(config.PDFConfig{BaseURL: server.URL})
	_, err := client.Render(context.Background(), RenderRequest{ReportID: "r1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=422")
	assert.Contains(t, err.Error(), "template missing")
}

func TestAPIClient_RenderWithoutURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewClient(config.PDFConfig{BaseURL: server.URL}).Render(context.Background(), RenderRequest{ReportID: "r1"})
	assert.Error(t, err)
}
