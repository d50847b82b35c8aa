package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// TitleMaxLen truncates titles in human listings.
const TitleMaxLen = 70

// outputJSON writes a value as formatted JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable line.
func outputHuman(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// output writes v as JSON, or calls human when --human is set.
func output(w io.Writer, v any, human func(io.Writer)) error {
	if humanOutput {
		human(w)
		return nil
	}
	return outputJSON(w, v)
}

// reportError writes err to w in the selected format and returns the exit code.
func reportError(w io.Writer, err error) int {
	code := exitCode(err)
	if humanOutput {
		fmt.Fprintf(w, "error: %s\n", err)
	} else {
		_ = outputJSON(w, ErrorResponse{Error: ErrorDetail{Code: errorCode(err), Message: err.Error()}})
	}
	return code
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse is a generic response for commands that write files.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// truncateString shortens s to maxLen runes, ending with "...".
func truncateString(s string, maxLen int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= maxLen {
		return string(r)
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
