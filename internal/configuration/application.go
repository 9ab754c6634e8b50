package configuration

import (
	"fmt"

	"github.com/desertwitch/blockfs/internal/schema"
)

const (
	// KeyInodeCount is the environment key for [schema.Geometry.InodeCount].
	KeyInodeCount = "BLOCKFS_INODE_COUNT"

	// KeyBlockCount is the environment key for [schema.Geometry.BlockCount].
	KeyBlockCount = "BLOCKFS_BLOCK_COUNT"

	// KeyBlockSize is the environment key for [schema.Geometry.BlockSize].
	KeyBlockSize = "BLOCKFS_BLOCK_SIZE"

	// KeyPointersPerInode is the environment key for
	// [schema.Geometry.PointersPerInode].
	KeyPointersPerInode = "BLOCKFS_POINTERS_PER_INODE"

	// KeyImagePath is the environment key for the disk image path.
	KeyImagePath = "BLOCKFS_IMAGE"
)

// AppConfiguration is the principal structure holding the application
// configuration.
type AppConfiguration struct {
	// Geometry holds the dimensions for newly established media.
	Geometry schema.Geometry

	// ImagePath is the disk image to persist the medium to, empty when
	// image persistence is not configured.
	ImagePath string
}

// NewAppConfiguration returns a pointer to a new [AppConfiguration] holding
// the application defaults.
func NewAppConfiguration() *AppConfiguration {
	return &AppConfiguration{
		Geometry: schema.DefaultGeometry(),
	}
}

// LoadAppConfiguration reads the given environment files and returns the
// [AppConfiguration] they describe. Keys left unset keep their defaults; a
// key that is set but does not parse to a usable value fails with
// [ErrInvalidValue].
func (c *Handler) LoadAppConfiguration(filenames ...string) (*AppConfiguration, error) {
	env, err := c.ReadFile(filenames...)
	if err != nil {
		return nil, fmt.Errorf("(config) failed to read configuration: %w", err)
	}

	app := NewAppConfiguration()

	for _, field := range []struct {
		key    string
		target *int
	}{
		{KeyInodeCount, &app.Geometry.InodeCount},
		{KeyBlockCount, &app.Geometry.BlockCount},
		{KeyBlockSize, &app.Geometry.BlockSize},
		{KeyPointersPerInode, &app.Geometry.PointersPerInode},
	} {
		raw := c.MapKeyToString(env, field.key)
		if raw == "" {
			continue
		}

		value := c.MapKeyToInt(env, field.key)
		if value <= 0 {
			return nil, fmt.Errorf("(config) %w: %s=%q", ErrInvalidValue, field.key, raw)
		}

		*field.target = value
	}

	if err := app.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("(config) %w", err)
	}

	if path := c.MapKeyToString(env, KeyImagePath); path != "" {
		app.ImagePath = path
	}

	return app, nil
}
