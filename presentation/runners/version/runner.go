package version

import (
	"fmt"
	"io"
	"strings"

	"multitun/domain/app"
)

// Tag will be set via ldflags by CI release workflow
var Tag = "version not set"

type Runner struct {
	out io.Writer
}

func NewRunner(out io.Writer) *Runner { return &Runner{out: out} }

// Run prints the banner followed by the version line.
func (r *Runner) Run() {
	rule := strings.Repeat("=", 46)
	_, _ = fmt.Fprintf(r.out, "%s\n %s %s\n covert point-to-multipoint tunnel over websockets\n%s\n",
		rule,
		app.Name,
		Tag,
		rule,
	)
}
