// Package server exposes a sentiment.Service over HTTP with echo.
//
// Routes: GET / (banner), GET /health, POST /predict_batch, GET /metrics
// and GET /version. Pipeline errors are translated to status codes here
// and nowhere else.
package server
