package api

import (
	"errors"
	"fmt"

	"wallet-client/pkg/errno"
)

// RemoteOperationError is returned by every Client method. Err is the errno
// sentinel (possibly carrying the server's message), so errors.Is(err,
// errno.ErrServerRejected) and errno.KindOf(err) both work on it.
type RemoteOperationError struct {
	Op         string
	Kind       errno.Kind
	StatusCode int
	Message    string
	Err        errno.Errno
}

func (e *RemoteOperationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

func newOpError(op string, status int, e errno.Errno) *RemoteOperationError {
	return &RemoteOperationError{
		Op:         op,
		Kind:       e.Kind(),
		StatusCode: status,
		Message:    e.Message,
		Err:        e,
	}
}

// wrapValidation 把 validator 返回的 errno 包装成 RemoteOperationError
func wrapValidation(op string, err error) error {
	if err == nil {
		return nil
	}
	var e errno.Errno
	if !errors.As(err, &e) {
		e = errno.ErrValidation.WithMessage(err.Error())
	}
	return newOpError(op, 0, e)
}

// AsRemoteError extracts the RemoteOperationError from err's chain.
func AsRemoteError(err error) (*RemoteOperationError, bool) {
	var re *RemoteOperationError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
