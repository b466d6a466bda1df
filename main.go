package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"multitun/domain/app"
	"multitun/infrastructure/PAL/platform"
	"multitun/presentation/cli"
	"multitun/presentation/elevation"
	"multitun/presentation/signals/shutdown"
)

func main() {
	p := platform.Resolve(runtime.GOOS)
	cmd := cli.NewRootCommand(cli.Environment{
		Platform:  p,
		GOOS:      runtime.GOOS,
		Elevation: elevation.NewProcessElevation(),
		Notifier:  shutdown.NewNotifier(),
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		os.Exit(cli.ExitCode(err))
	}
}
