package capability

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateOperation = errors.New("duplicate operation name")
	ErrNoOperations       = errors.New("provider exposes no operations")
	ErrInvalidName        = errors.New("invalid name")
	ErrMissingInvoke      = errors.New("operation has no invoke function")
	ErrInvalidParam       = errors.New("invalid parameter declaration")
	ErrEmptyCatalog       = errors.New("no capability providers registered")
	ErrOperationNotFound  = errors.New("operation not found")
	ErrInvalidArguments   = errors.New("invalid arguments")
)

// ConfigError is a startup failure found while discovering providers.
// The process must not serve sessions after one is returned.
type ConfigError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Provider == "":
		return fmt.Sprintf("capability config: %v", e.Err)
	case e.Operation == "":
		return fmt.Sprintf("capability config: provider %q: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("capability config: %s.%s: %v", e.Provider, e.Operation, e.Err)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err carries a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
