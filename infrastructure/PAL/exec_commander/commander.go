package exec_commander

import (
	"fmt"
	"os/exec"
	"strings"
)

type ExecCommander struct {
}

func NewExecCommander() Commander {
	return &ExecCommander{}
}

// CombinedOutput runs the command and folds its output into the error on failure.
func (r *ExecCommander) CombinedOutput(name string, args ...string) ([]byte, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}
