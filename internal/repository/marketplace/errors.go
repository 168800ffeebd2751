package marketplace

import (
	"errors"
	"fmt"
)

// TransientError is a failure worth retrying: a timeout, a transport error,
// a rate limit or a server error.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient marketplace error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient marketplace error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError is a failure that will not change on retry, such as a client
// error or an undecodable body.
type FatalError struct {
	StatusCode int
	Err        error
}

func (e *FatalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("marketplace request rejected (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("marketplace request failed: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}

// classify maps an HTTP status to an error kind. 2xx returns nil.
func classify(status int, body string) error {
	switch {
	case status >= 200 && status <= 299:
		return nil
	case status == 429 || status >= 500:
		return &TransientError{StatusCode: status, Err: errors.New(body)}
	default:
		return &FatalError{StatusCode: status, Err: errors.New(body)}
	}
}
