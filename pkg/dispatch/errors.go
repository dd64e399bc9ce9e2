package dispatch

import (
	"errors"
	"fmt"
)

// Kind categorizes why a request ended without delivering an analysis.
type Kind int

const (
	KindInvalidAddress Kind = iota + 1
	KindAlreadyInProgress
	KindAnalysisError
	KindFormatError
	KindDeliveryError
	KindCallbackError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidAddress:
		return "invalid_address"
	case KindAlreadyInProgress:
		return "already_in_progress"
	case KindAnalysisError:
		return "analysis_error"
	case KindFormatError:
		return "format_error"
	case KindDeliveryError:
		return "delivery_error"
	case KindCallbackError:
		return "callback_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the terminal failure of one session or refresh.
type Error struct {
	Kind    Kind
	Address string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s for %s: %v", e.Kind, e.Address, e.Err)
	}
	return fmt.Sprintf("%s for %s", e.Kind, e.Address)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind of a dispatch error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// expected reports whether err is a user-side rejection rather than a fault.
func expected(err error) bool {
	kind, ok := KindOf(err)
	return ok && (kind == KindInvalidAddress || kind == KindAlreadyInProgress)
}
