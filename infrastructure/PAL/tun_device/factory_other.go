//go:build !linux && !darwin && !freebsd && !openbsd && !windows

package tun_device

import "multitun/infrastructure/PAL/platform"

func nativeOpeners() map[platform.Platform]Opener {
	return nil
}
