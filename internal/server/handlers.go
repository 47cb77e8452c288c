package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tsawler/sentiment"
	"github.com/tsawler/sentiment/internal/version"
)

// PredictBatchRequest is the body of POST /predict_batch.
type PredictBatchRequest struct {
	Comments []sentiment.RawDocument `json:"comments"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string  `json:"status"`
	State            string  `json:"state"`
	ModelLoaded      bool    `json:"model_loaded"`
	VectorizerLoaded bool    `json:"vectorizer_loaded"`
	ModelType        string  `json:"model_type,omitempty"`
	RunID            string  `json:"run_id,omitempty"`
	Uptime           float64 `json:"uptime"`
}

func (s *Server) handleRoot(c echo.Context) error {
	response := map[string]any{
		"message": "YouTube Sentiment Analysis API",
		"version": version.Get().Version,
		"endpoints": map[string]string{
			"/health":        "Service and model status",
			"/predict_batch": "Classify a batch of comments",
			"/metrics":       "Prometheus metrics",
			"/version":       "Build information",
		},
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write root response: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	response := HealthResponse{
		Status: "unhealthy",
		State:  s.service.State().String(),
		Uptime: s.clock.Since(s.startTime).Seconds(),
	}
	status := http.StatusServiceUnavailable

	if meta, ok := s.service.Metadata(); ok && s.service.Ready() {
		response.Status = "healthy"
		response.ModelLoaded = true
		response.VectorizerLoaded = true
		response.ModelType = meta.ModelType
		response.RunID = meta.RunID
		status = http.StatusOK
	}

	if err := c.JSON(status, response); err != nil {
		return fmt.Errorf("failed to write health response: %w", err)
	}
	return nil
}

func (s *Server) handlePredictBatch(c echo.Context) error {
	var req PredictBatchRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, sentiment.ValidationError("malformed request body"))
	}

	result, err := s.service.PredictBatch(c.Request().Context(), req.Comments)
	if err != nil {
		return s.writeError(c, err)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to write prediction response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
