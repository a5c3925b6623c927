package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Global JSON output flag
var jsonOutput bool

// errReported marks an error that was already written as a JSON envelope.
var errReported = errors.New("error reported")

// Response is the standard JSON envelope for all CLI output.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

// ErrorInfo contains structured error information.
type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Warning represents a non-fatal warning.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func outputJSON(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

// outputSuccess outputs a successful JSON response.
func outputSuccess(w io.Writer, data interface{}, warnings []Warning) {
	outputJSON(w, Response{OK: true, Data: data, Warnings: warnings})
}

// isJSONOutput returns true if JSON output is enabled.
func isJSONOutput() bool {
	return jsonOutput
}

// handleError handles an error appropriately based on output mode.
// In JSON mode the envelope goes to w and errReported is returned, so the
// process still exits non-zero without printing the error twice.
func handleError(w io.Writer, code string, err error, suggestion string) error {
	return handleErrorWithDetails(w, code, err, suggestion, nil)
}

// handleErrorWithDetails is handleError with structured details.
func handleErrorWithDetails(w io.Writer, code string, err error, suggestion string, details interface{}) error {
	if !jsonOutput {
		if suggestion != "" {
			return fmt.Errorf("%w\n\n%s", err, suggestion)
		}
		return err
	}
	outputJSON(w, Response{
		OK: false,
		Error: &ErrorInfo{
			Code:       code,
			Message:    err.Error(),
			Details:    details,
			Suggestion: suggestion,
		},
	})
	return errReported
}
