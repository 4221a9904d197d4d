package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int, correlationID string) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// HandleError logs err and writes it as an ErrorResponse. Server errors hide
// the underlying error text from the client.
func (s *Server) HandleError(c echo.Context, err error, message string, code int) error {
	ctx := c.Request().Context()
	resp := NewErrorResponse(err, message, code, logger.TraceID(ctx))

	s.logger.WithContext(ctx).Warn("api error",
		logger.String("path", c.Path()),
		logger.Int("code", code),
		logger.String("message", message),
		logger.Error(err))

	if code >= http.StatusInternalServerError {
		resp.Error = http.StatusText(code)
	}
	return c.JSON(code, resp)
}
