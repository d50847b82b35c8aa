package zotero

import (
	"errors"
	"fmt"
)

// Common errors returned by the Zotero client.
var (
	// ErrNotFound indicates the library, collection or item was not found.
	ErrNotFound = errors.New("not found in Zotero")

	// ErrAuthError indicates a missing or invalid API key, or a key without access.
	ErrAuthError = errors.New("Zotero authentication error")

	// ErrRateLimited indicates the API asked us to back off.
	ErrRateLimited = errors.New("Zotero rate limit exceeded")

	// ErrPreconditionFailed indicates the item changed since the version we sent.
	ErrPreconditionFailed = errors.New("Zotero item version changed")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Zotero")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Zotero")

	// ErrTooManyItems indicates a write exceeding MaxWriteItems.
	ErrTooManyItems = errors.New("too many items in one Zotero write")
)

// APIError represents a non-success response from the Zotero Web API.
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Zotero API error (status %d) on %s: %s", e.StatusCode, e.Path, e.Message)
	}
	return fmt.Sprintf("Zotero API error (status %d) on %s", e.StatusCode, e.Path)
}

// InvalidFieldError reports an item field that the item type does not define.
type InvalidFieldError struct {
	Index    int
	ItemType string
	Field    string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("item %d: field %q is not valid for item type %q", e.Index, e.Field, e.ItemType)
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.StatusCode == 401 || apiErr.StatusCode == 403)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}
