package utun

import (
	"fmt"
	"strconv"

	"multitun/application/network/tun"
	"multitun/infrastructure/PAL/exec_commander"
)

// ifconfigArgs assigns the point-to-point pair, netmask and MTU and brings the link up in one call.
func ifconfigArgs(ifName string, settings tun.Settings) []string {
	return []string{
		ifName,
		"inet", settings.LocalAddress.String(), settings.PeerAddress.String(),
		"netmask", settings.Netmask.String(),
		"mtu", strconv.Itoa(settings.MTU),
		"up",
	}
}

func configure(commander exec_commander.Commander, ifName string, settings tun.Settings) error {
	if _, err := commander.CombinedOutput("ifconfig", ifconfigArgs(ifName, settings)...); err != nil {
		return fmt.Errorf("failed to configure %s: %w", ifName, err)
	}
	return nil
}
