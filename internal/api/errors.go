package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rongwang/deductible-server/internal/models"
)

// mapError picks the status and public payload for err. Anything not
// recognized is reported without detail.
func mapError(err error) (int, models.ErrorResponse) {
	payload := models.ErrorResponse{Status: "error"}
	switch {
	case errors.Is(err, models.ErrNotFound):
		payload.Code, payload.Message = "NOT_FOUND", "Not found"
		return http.StatusNotFound, payload
	case errors.Is(err, models.ErrCharityInUse):
		payload.Code, payload.Message = "CHARITY_IN_USE", "Charity has active donations"
		return http.StatusConflict, payload
	case errors.Is(err, models.ErrConflict):
		payload.Code, payload.Message = "CONFLICT", "Not updated (stale or duplicate)"
		return http.StatusConflict, payload
	case errors.Is(err, models.ErrInvalidInput):
		payload.Code, payload.Message = "INVALID_INPUT", err.Error()
		return http.StatusBadRequest, payload
	case errors.Is(err, models.ErrUpstreamTimeout):
		payload.Code, payload.Message = "UPSTREAM_TIMEOUT", "Registry did not answer in time"
		return http.StatusGatewayTimeout, payload
	default:
		payload.Code, payload.Message = "INTERNAL", "Database Error"
		return http.StatusInternalServerError, payload
	}
}

// respondError records err on the context for the request logger and writes
// the mapped response.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, payload := mapError(err)
	c.AbortWithStatusJSON(status, payload)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "BAD_REQUEST",
		Message: message,
	})
}
