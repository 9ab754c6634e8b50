package bitmap

import "errors"

var (
	// ErrLengthMismatch occurs when a serialized bitmap does not match the
	// byte length required for the covered block count.
	ErrLengthMismatch = errors.New("serialized bitmap has wrong length")
)
