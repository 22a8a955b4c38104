package reporting

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied  = errors.New("access denied")
	ErrNotSignedIn   = errors.New("not signed in")
	ErrNotTelecaller = errors.New("only telecallers can submit reports")
	ErrNotManager    = errors.New("only managers can export reports")
	ErrInvalidReport = errors.New("invalid report")
)

// invalid wraps ErrInvalidReport with the offending field.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidReport, fmt.Sprintf(format, args...))
}

// UserMessage turns a service error into the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccessDenied):
		return "Access Denied. Please check your email or contact an administrator."
	case errors.Is(err, ErrNotTelecaller):
		return "Only telecallers can submit reports."
	case errors.Is(err, ErrNotManager):
		return "Only managers can export reports."
	case errors.Is(err, ErrNotSignedIn):
		return "Please log in first."
	}
	return err.Error()
}
