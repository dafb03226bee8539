package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/service/ingestion"
)

var sentinels = []struct {
	err    error
	status int
}{
	{models.ErrBadRequest, http.StatusBadRequest},
	{models.ErrConflict, http.StatusBadRequest},
	{models.ErrUnauthorized, http.StatusUnauthorized},
	{models.ErrForbidden, http.StatusForbidden},
	{models.ErrNotFound, http.StatusNotFound},
	{models.ErrUnavailable, http.StatusServiceUnavailable},
}

// writeError maps service errors onto HTTP responses. Client errors carry a
// message; server errors also carry the underlying error text.
func writeError(c *gin.Context, logger *zap.Logger, fallback string, err error) {
	var decodeErr *ingestion.DecodeError
	if errors.As(err, &decodeErr) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error processing file", "error": decodeErr.Error()})
		return
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			c.JSON(s.status, gin.H{"message": clientMessage(err, s.err)})
			return
		}
	}

	logger.Error(fallback,
		zap.String("request_id", c.GetString("request_id")),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": fallback, "error": err.Error()})
}

// clientMessage strips the sentinel prefix so "bad request: companyId is
// required" reads "companyId is required".
func clientMessage(err, sentinel error) string {
	msg := err.Error()
	if trimmed, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok && trimmed != "" {
		return trimmed
	}
	return msg
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}
