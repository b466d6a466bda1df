package elevation

import "errors"

// ErrNotElevated is returned when the process lacks the privilege to create a virtual interface.
var ErrNotElevated = errors.New("insufficient privileges")

// ProcessElevation is a simple interface to check if the application is running with elevated privileges.
type ProcessElevation interface {
	IsElevated() bool
	Hint() string
}

// Require returns ErrNotElevated, with the platform hint, when the process is not elevated.
func Require(p ProcessElevation) error {
	if p.IsElevated() {
		return nil
	}
	return errors.Join(ErrNotElevated, errors.New(p.Hint()))
}
