package cli

import (
	"multitun/domain/app"
	"multitun/infrastructure/PAL/configuration"
	"multitun/infrastructure/PAL/platform"
	"multitun/presentation/elevation"
	"multitun/presentation/runners/version"
	"multitun/presentation/signals"

	"github.com/spf13/cobra"
)

// Environment is resolved once in main and passed down explicitly.
type Environment struct {
	Platform  platform.Platform
	GOOS      string
	Elevation elevation.ProcessElevation
	Notifier  signals.Notifier
}

// Options holds the command line flags.
type Options struct {
	Server     bool
	ConfigPath string
	Version    bool
}

func NewRootCommand(env Environment) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   app.Name,
		Short: "Covert point-to-multipoint VPN over websockets",
		Long: `multitun tunnels IP traffic between a hub and its clients through
websocket connections that look like ordinary web traffic.

Run with -s on the hub. Every other host runs as a client and dials the hub.
Both modes read the same configuration file and need administrator
privileges to create the virtual interface.`,
		Example: `  # Start the hub
  multitun -s

  # Start a client with a custom configuration file
  multitun -c /etc/multitun.toml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			version.NewRunner(cmd.OutOrStdout()).Run()
			if opts.Version {
				return nil
			}
			return run(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Server, "server", "s", false,
		"run as the hub (client mode otherwise)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", configuration.DefaultPath,
		"path to the configuration file (TOML format)")
	cmd.Flags().BoolVar(&opts.Version, "version", false,
		"print the version and exit")

	return cmd
}
