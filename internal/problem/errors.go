package problem

// ErrConfig is the sentinel matched by every *ConfigError.
// Use errors.Is(err, problem.ErrConfig) to check for it.
var ErrConfig = &ConfigError{}

// ConfigError reports an invalid or incomplete problem definition, or an
// invalid generation setting derived from one.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return "configuration error: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}
