package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tsawler/sentiment"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// statusClientClosedRequest is the non-standard status logged when the
// client goes away before a response is written.
const statusClientClosedRequest = 499

// statusFor maps a pipeline error kind to an HTTP status.
func statusFor(kind sentiment.ErrorKind) int {
	switch kind {
	case sentiment.KindValidation:
		return http.StatusBadRequest
	case sentiment.KindUnavailable:
		return http.StatusServiceUnavailable
	case sentiment.KindCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError converts err to a JSON error response.
func (s *Server) writeError(c echo.Context, err error) error {
	kind := sentiment.KindOf(err)
	switch {
	case kind != "":
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = sentiment.KindCanceled
	default:
		kind = sentiment.KindInference
	}
	status := statusFor(kind)

	message := err.Error()
	var e *sentiment.Error
	if errors.As(err, &e) && status != http.StatusInternalServerError {
		message = e.Message
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(status, ErrorResponse{Error: message, Type: string(kind)}); err != nil {
		return fmt.Errorf("failed to write error response: %w", err)
	}
	return nil
}
