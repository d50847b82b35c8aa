package main

import (
	"errors"

	"github.com/meilisearch/meilisearch-go"

	"github.com/gaas-tools/gaas/internal/biblio"
	"github.com/gaas-tools/gaas/internal/config"
	"github.com/gaas-tools/gaas/internal/crossref"
	"github.com/gaas-tools/gaas/internal/zotero"
)

// Exit codes
const (
	ExitSuccess         = 0 // Success
	ExitError           = 1 // General error (invalid arguments, missing input files)
	ExitConfigError     = 2 // Configuration error (missing credentials, bad library type)
	ExitAPIError        = 3 // Remote error (Zotero, CrossRef, MeiliSearch)
	ExitUnsupportedType = 4 // CrossRef record type with no Zotero item type
)

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	var unsupported *biblio.UnsupportedTypeError
	if errors.As(err, &unsupported) {
		return ExitUnsupportedType
	}

	if errors.Is(err, config.ErrMissingCredential) || errors.Is(err, config.ErrInvalidLibraryType) {
		return ExitConfigError
	}

	if isRemoteError(err) {
		return ExitAPIError
	}
	return ExitError
}

func isRemoteError(err error) bool {
	var (
		zoteroErr   *zotero.APIError
		crossrefErr *crossref.APIError
		meiliErr    *meilisearch.Error
	)
	switch {
	case errors.As(err, &zoteroErr), errors.As(err, &crossrefErr), errors.As(err, &meiliErr):
		return true
	}
	for _, target := range []error{
		zotero.ErrNotFound, zotero.ErrAuthError, zotero.ErrRateLimited, zotero.ErrPreconditionFailed,
		zotero.ErrNetworkError, zotero.ErrInvalidResponse,
		crossref.ErrNetworkError, crossref.ErrInvalidResponse,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorCode is the machine-readable code reported in JSON errors.
func errorCode(err error) string {
	switch {
	case zotero.IsNotFound(err), crossref.IsNotFound(err):
		return "not_found"
	case zotero.IsAuthError(err):
		return "auth_error"
	case zotero.IsRateLimited(err):
		return "rate_limited"
	}
	switch exitCode(err) {
	case ExitConfigError:
		return "config_error"
	case ExitAPIError:
		return "api_error"
	case ExitUnsupportedType:
		return "unsupported_type"
	}
	return "error"
}
