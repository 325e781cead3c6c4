package client

import (
	"context"
	"errors"
	"net"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as the dashboardActionsTotal outcome label.
const (
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryCanceled      ErrorCategory = "canceled"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryInvalidAPIKey ErrorCategory = "invalid_api_key"
	ErrorCategoryNotFound      ErrorCategory = "not_found"
	ErrorCategoryProvider      ErrorCategory = "provider"
	ErrorCategoryParsing       ErrorCategory = "parsing"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

// categories is checked in order; context errors come first because a
// NetworkError usually wraps the deadline that caused it.
var categories = []struct {
	target   error
	category ErrorCategory
}{
	{context.DeadlineExceeded, ErrorCategoryTimeout},
	{context.Canceled, ErrorCategoryCanceled},
	{ErrAuth, ErrorCategoryInvalidAPIKey},
	{ErrNotFound, ErrorCategoryNotFound},
	{ErrAPI, ErrorCategoryProvider},
	{ErrParse, ErrorCategoryParsing},
	{ErrNetwork, ErrorCategoryNetwork},
}

// CategorizeError maps an error to a stable ErrorCategory for metrics.
// nil maps to the empty category.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	for _, c := range categories {
		if errors.Is(err, c.target) {
			return c.category
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorCategoryTimeout
		}
		return ErrorCategoryNetwork
	}
	return ErrorCategoryUnknown
}
