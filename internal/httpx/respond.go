// Package httpx carries the wire envelopes shared by middleware and
// handlers: the error envelope emitted on every non-2xx response and the
// pagination envelope emitted by list endpoints.
package httpx

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"
)

// Error codes drawn from the panel contract.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMITED"
	CodeServerError  = "SERVER_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
)

// ErrorBody is the JSON envelope for all non-2xx responses.
type ErrorBody struct {
	Error        string `json:"error"`
	Code         string `json:"code"`
	Path         string `json:"path,omitempty"`
	Method       string `json:"method,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	RetryAfter   int    `json:"retryAfter,omitempty"`
	RetryAfterMs int64  `json:"retryAfterMs,omitempty"`

	// Required and Current carry the wanted and held role or permission
	// sets on FORBIDDEN responses, for panel diagnostics. Never tokens.
	Required []string `json:"required,omitempty"`
	Current  []string `json:"current,omitempty"`
}

// Pagination is the list-response pagination block.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListBody is the JSON envelope for list endpoints.
type ListBody struct {
	Items      any        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes the pagination block for a page of a total.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// List writes the list envelope for items and pagination.
func List(w http.ResponseWriter, items any, p Pagination) {
	JSON(w, http.StatusOK, ListBody{Items: items, Pagination: p})
}

// Error writes the error envelope. Identical inputs produce identical
// codes and messages; messages are stable strings.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	JSON(w, status, errorBody(r, code, message))
}

// ErrorForbiddenSets writes a FORBIDDEN envelope carrying the required
// and currently held sets for diagnostics.
func ErrorForbiddenSets(w http.ResponseWriter, r *http.Request, message string, required, current []string) {
	body := errorBody(r, CodeForbidden, message)
	body.Required = required
	body.Current = current
	JSON(w, http.StatusForbidden, body)
}

// ErrorRateLimited writes a 429 envelope with Retry-After advertised both
// as a header and in the body.
func ErrorRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	body := errorBody(r, CodeRateLimited, "Too many requests")
	body.RetryAfter = seconds
	body.RetryAfterMs = retryAfter.Milliseconds()
	JSON(w, http.StatusTooManyRequests, body)
}

func errorBody(r *http.Request, code, message string) ErrorBody {
	body := ErrorBody{
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if r != nil {
		body.Path = r.URL.Path
		body.Method = r.Method
	}
	return body
}
