// Package assistant talks to the generative model that writes report
// summaries and answers questions about a set of reports.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/sadopc/eod/internal/store"
)

// NoDataAnswer is returned for questions about an empty report set.
const NoDataAnswer = "There is no report data to analyze."

var (
	ErrNotConfigured = errors.New("API_KEY environment variable is not set")
	ErrUnavailable   = errors.New("assistant unavailable")
	ErrEmptyQuestion = errors.New("question is empty")
)

// Assistant produces prose about reports. Calls may block for a long time and
// are never retried by the implementation.
type Assistant interface {
	Summarize(ctx context.Context, report store.DailyReport) (string, error)
	Answer(ctx context.Context, reports []store.DailyReport, question string) (string, error)
}

type Op string

const (
	OpSummarize Op = "summarize"
	OpAnswer    Op = "answer"
)

// RequestError is a failed remote call. It matches ErrUnavailable.
type RequestError struct {
	Op  Op
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("assistant %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// UserMessage turns an assistant error into the text shown in the UI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "API_KEY environment variable is not set."
	case errors.Is(err, ErrEmptyQuestion):
		return "Please enter a question and ensure there is data to analyze."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.As(err, &reqErr) && reqErr.Op == OpSummarize:
		return "Failed to generate report summary. Please try again."
	case errors.As(err, &reqErr):
		return "Failed to get AI insights. The model may be unavailable or the request may have failed."
	}
	return err.Error()
}
