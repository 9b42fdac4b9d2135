package core

import (
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// processSpec describes a single job invocation: argv = [Path, *Arguments,
// ExtraArg?], cwd = Cwd, stdout/stderr merged into LogFile (appended) if
// set, else discarded.
type processSpec struct {
	Path      string
	Arguments []string
	ExtraArg  string
	Cwd       string
	LogFile   string
}

// runProcess spawns the job's executable and waits for it to exit,
// returning its exit code. A non-zero exit code or spawn failure is
// reported to the caller, which maps it to StateFailed without tearing
// down the rest of the tree.
func runProcess(spec processSpec) (int, error) {
	args := append([]string{}, spec.Arguments...)
	if spec.ExtraArg != "" {
		args = append(args, spec.ExtraArg)
	}

	cmd := exec.Command(spec.Path, args...)
	cmd.Dir = spec.Cwd

	var out io.Writer
	var closer func()
	if spec.LogFile != "" {
		f, err := os.OpenFile(
			spec.LogFile,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY,
			0644,
		)
		if err != nil {
			return 1, errors.Wrapf(err, "opening logfile %s", spec.LogFile)
		}
		out = f
		closer = func() { f.Close() }
	} else {
		out = io.Discard
		closer = func() {}
	}
	defer closer()

	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 1, errors.Wrapf(err, "running %s", spec.Path)
	}
	return 0, nil
}

// validateExecutable checks that path exists and is executable, returning
// a human-readable suffix describing the failure, or "" if path is fine.
func validateExecutable(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "does not exist."
		}
		return err.Error()
	}
	if info.Mode()&0111 == 0 {
		return "is not executable."
	}
	return ""
}
