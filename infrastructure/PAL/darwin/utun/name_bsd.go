//go:build freebsd || openbsd

package utun

func deviceName(requested string) string {
	return requested
}
