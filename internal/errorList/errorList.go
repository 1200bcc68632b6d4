package errorList

import (
	"errors"
	"strings"
)

// Separator joins the messages of a list in Error().
const Separator = ", "

// ErrorList wraps multiple errors as a single error. It is used to collect
// the failure details of one test, e.g. the targets whose output differed.
type ErrorList []error

// Error returns the messages of all errors in the list joined by Separator.
func (errs ErrorList) Error() string {
	if len(errs) == 0 {
		return "<no errors>"
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, Separator)
}

// ErrOrNil returns nil if ErrorList is empty, or the error otherwise.
func (errs ErrorList) ErrOrNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Append an error to the list.
//
// If err is an instance of ErrorList, the lists are concatenated together,
// otherwise err is appended at the end of the list. If err is nil, the list is
// returned unmodified.
//
//	for _, o := range outcomes {
//		details = details.Append(o.err)
//	}
func (errs ErrorList) Append(err error) ErrorList {
	if err == nil {
		return errs
	}
	if err, ok := err.(ErrorList); ok {
		return append(errs, err...)
	}
	return append(errs, err)
}

// Is reports whether any error in the list matches target, so that
// errors.Is looks through the list.
func (errs ErrorList) Is(target error) bool {
	for _, err := range errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
