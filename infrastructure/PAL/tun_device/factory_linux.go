//go:build linux

package tun_device

import (
	"multitun/infrastructure/PAL/linux/linux_tun"
	"multitun/infrastructure/PAL/platform"
)

func nativeOpeners() map[platform.Platform]Opener {
	return map[platform.Platform]Opener{
		platform.Linux: linux_tun.Open,
	}
}
