package handler

import (
	"errors"
	"net/http"
	"time"

	"assettrack/internal/apperr"
	"assettrack/pkg/response"

	"github.com/gin-gonic/gin"
)

func nowStamp() string {
	return time.Now().Format("20060102-150405")
}

// writeError maps service errors onto HTTP status codes. Anything outside the
// apperr taxonomy is a 500.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrUnavailable):
		status = http.StatusBadGateway
	}
	c.JSON(status, response.Error(status, err.Error()))
}
