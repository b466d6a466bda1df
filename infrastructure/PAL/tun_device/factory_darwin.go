//go:build darwin || freebsd || openbsd

package tun_device

import (
	"multitun/infrastructure/PAL/darwin/utun"
	"multitun/infrastructure/PAL/exec_commander"
	"multitun/infrastructure/PAL/platform"
)

func nativeOpeners() map[platform.Platform]Opener {
	return map[platform.Platform]Opener{
		platform.Darwin: utun.NewOpener(exec_commander.NewExecCommander()).Open,
	}
}
