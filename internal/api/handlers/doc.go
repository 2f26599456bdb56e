// Package handlers implements HTTP handlers for the deal-scorer API.
//
// Most endpoints are Huma operations registered through a Register*Routes
// function; the health probes are plain echo handlers so they stay cheap
// and never show up in the OpenAPI document.
package handlers

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}
