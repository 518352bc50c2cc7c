package opt

import (
	"fmt"
	"strings"
)

// ErrConfig is the sentinel matched by every *ConfigError.
var ErrConfig = &ConfigError{}

// ErrShape is the sentinel matched by every *ShapeError.
var ErrShape = &ShapeError{}

// ConfigError reports an unknown optimizer, unknown option keys or an
// invalid hyperparameter value.
type ConfigError struct {
	// Keys lists the offending option keys, if any.
	Keys   []string
	Reason string
}

func (e *ConfigError) Error() string {
	if len(e.Keys) > 0 {
		return fmt.Sprintf("configuration error: %s: '%s'", e.Reason, strings.Join(e.Keys, ", "))
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// ShapeError reports a tensor whose shape differs from the shape the
// optimizer is bound to, or whose data does not fill its shape.
type ShapeError struct {
	Want []int
	Got  []int
	What string
}

func (e *ShapeError) Error() string {
	what := e.What
	if what == "" {
		what = "tensor"
	}
	return fmt.Sprintf("shape error: %s has shape %v, want %v", what, e.Got, e.Want)
}

func (e *ShapeError) Is(target error) bool {
	_, ok := target.(*ShapeError)
	return ok
}
