package testrunner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// ExecRunner implements domain.TestRunner by invoking an external test
// command. The command is bounded by the caller's context deadline; an
// overrun reports TIMEOUT, never an error.
type ExecRunner struct{}

func New() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the test command in projectPath. When command is empty a
// runner is discovered from project markers.
func (r *ExecRunner) Run(ctx context.Context, projectPath string, command []string) (domain.TestStatus, string, error) {
	if len(command) == 0 {
		command = DiscoverCommand(projectPath)
	}
	if len(command) == 0 {
		return domain.TestNotRun, "", errors.New("no test runner discovered")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = projectPath
	out, err := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		return domain.TestTimeout, string(out), nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return domain.TestFailed, string(out), nil
		}
		return domain.TestNotRun, string(out), err
	}
	return domain.TestPassed, string(out), nil
}

// DiscoverCommand picks a test command from project markers.
func DiscoverCommand(projectPath string) []string {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(projectPath, name))
		return err == nil
	}
	switch {
	case exists("go.mod"):
		return []string{"go", "test", "./..."}
	case exists("package.json"):
		return []string{"npm", "test"}
	case exists("pytest.ini"), exists("pyproject.toml"):
		return []string{"pytest", "-q"}
	}
	return nil
}
