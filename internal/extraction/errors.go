package extraction

import "errors"

// ErrMalformed marks extraction output that cannot be turned into valid
// candidates. Distinct from the zero-candidate case, which is a valid result.
var ErrMalformed = errors.New("malformed extraction result")

// TransientError wraps connectivity-class failures (timeouts, network errors,
// 5xx responses). Reports failing this way are routed into the offline queue
// instead of being surfaced as data loss.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is connectivity-class.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsMalformed reports whether err is a parse-class extraction failure.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
