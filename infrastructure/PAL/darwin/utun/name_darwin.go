//go:build darwin

package utun

import "strings"

// deviceName lets the kernel pick a free unit unless an explicit utunN is configured.
func deviceName(requested string) string {
	if strings.HasPrefix(requested, "utun") {
		return requested
	}
	return "utun"
}
