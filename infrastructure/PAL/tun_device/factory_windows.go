//go:build windows

package tun_device

import (
	"multitun/infrastructure/PAL/platform"
	"multitun/infrastructure/PAL/windows/wtun"
)

func nativeOpeners() map[platform.Platform]Opener {
	return map[platform.Platform]Opener{
		platform.Windows: wtun.Open,
	}
}
