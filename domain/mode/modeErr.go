package mode

import "fmt"

// UnsupportedPlatform is returned when a mode cannot run on the host platform.
type UnsupportedPlatform struct {
	mode     Mode
	platform string
}

func NewUnsupportedPlatform(mode Mode, platform string) UnsupportedPlatform {
	return UnsupportedPlatform{
		mode:     mode,
		platform: platform,
	}
}

func (u UnsupportedPlatform) Error() string {
	return fmt.Sprintf("%s mode is not supported on %s", u.mode, u.platform)
}
