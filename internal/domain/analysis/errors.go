package analysis

import (
	"errors"
	"strings"
)

var (
	// ErrNetworkFault indicates the request to the analysis service could not be completed.
	ErrNetworkFault = errors.New("analysis service unreachable")
	// ErrServerRejected indicates the analysis service answered with a non-2xx status.
	ErrServerRejected = errors.New("analysis service rejected the upload")
	// ErrMalformedResponse indicates a 2xx body that is not an analysis result.
	ErrMalformedResponse = errors.New("malformed analysis response")

	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrEmptyFile          = errors.New("file is empty")
	ErrSelectionCancelled = errors.New("file selection cancelled")
)

// Message converts a settlement error into the text shown to the user.
// Server-provided detail is deliberately left out.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrServerRejected):
		return "Upload failed"
	case errors.Is(err, ErrNetworkFault):
		return "Upload failed: analysis service unreachable"
	case errors.Is(err, ErrMalformedResponse):
		detail := strings.TrimPrefix(err.Error(), ErrMalformedResponse.Error())
		detail = strings.TrimSpace(strings.TrimPrefix(detail, ":"))
		if detail == "" {
			return "Malformed analysis response"
		}
		return "Malformed analysis response: " + detail
	default:
		return "Upload failed"
	}
}
