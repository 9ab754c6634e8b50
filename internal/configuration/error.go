package configuration

import "errors"

// ErrInvalidValue occurs when a configuration key is set to a value that
// does not parse to something usable.
var ErrInvalidValue = errors.New("configuration value is not usable")
