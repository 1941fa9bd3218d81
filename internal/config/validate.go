package config

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/Faultbox/pixelmesh/internal/mesh"
	"github.com/Faultbox/pixelmesh/internal/region"
)

// ErrInvalid marks configuration errors.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks the settings that the pipeline depends on and returns all
// violations combined.
func (c *Config) Validate() error {
	var err error
	if !positive(c.Input.PixelSize) {
		err = multierr.Append(err, fmt.Errorf("%w: input.pixel_size %v must be positive and finite", ErrInvalid, c.Input.PixelSize))
	}
	if !positive(c.Mesh.ColorHeight) {
		err = multierr.Append(err, fmt.Errorf("%w: mesh.color_height %v must be positive and finite", ErrInvalid, c.Mesh.ColorHeight))
	}
	if math.IsNaN(c.Mesh.BaseHeight) || math.IsInf(c.Mesh.BaseHeight, 0) {
		err = multierr.Append(err, fmt.Errorf("%w: mesh.base_height %v must be finite", ErrInvalid, c.Mesh.BaseHeight))
	}
	if !region.Connectivity(c.Mesh.Connectivity).Valid() {
		err = multierr.Append(err, fmt.Errorf("%w: mesh.connectivity %d must be 0, 4 or 8", ErrInvalid, c.Mesh.Connectivity))
	}
	if _, serr := mesh.NewStrategy(c.Mesh.Strategy); serr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: mesh.strategy: %v", ErrInvalid, serr))
	}
	if c.Mesh.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: mesh.workers %d must not be negative", ErrInvalid, c.Mesh.Workers))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level))
	}
	return err
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
