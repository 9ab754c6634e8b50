// Package configuration implements the configuration layer of the
// application. Settings are read from Unix-type environment files and mapped
// onto the typed structures the other packages consume, with defaults
// filling in for anything left unset.
package configuration

import (
	"strconv"
)

type fileProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

// Handler is the principal implementation of the configuration layer.
type Handler struct {
	files fileProvider
}

// NewHandler returns a pointer to a new configuration [Handler] reading
// through the given file provider.
func NewHandler(files fileProvider) *Handler {
	return &Handler{
		files: files,
	}
}

// ReadFile reads generic Unix-type configuration files into a map
// (map[key]value).
func (c *Handler) ReadFile(filenames ...string) (map[string]string, error) {
	return c.files.Read(filenames...)
}

// MapKeyToString returns the string value for key, or an empty string when
// the key is absent.
func (c *Handler) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return value
	}

	return ""
}

// MapKeyToInt returns the integer value for key, or -1 when the key is
// absent or does not parse.
func (c *Handler) MapKeyToInt(envMap map[string]string, key string) int {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}

	return intValue
}

// MapKeyToInt64 returns the 64-bit integer value for key, or -1 when the key
// is absent or does not parse.
func (c *Handler) MapKeyToInt64(envMap map[string]string, key string) int64 {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}

	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return -1
	}

	return intValue
}
