// Package executor runs generated test scripts in isolated child
// processes with timeout enforcement, and parses their heterogeneous
// output into canonical test results.
package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, argv []string, env []string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner with a real child process. The
// child gets its own process group so that on timeout the whole tree is
// killed, not just the direct child.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, argv []string, env []string) (string, string, int, error) {
	if len(argv) == 0 {
		return "", "", -1, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// alwaysEnv is forwarded to every script regardless of configuration.
var alwaysEnv = []string{"PATH", "HOME", "LANG", "TMPDIR"}

// BuildEnv assembles the child environment from the parent's, forwarding
// only the always-on set plus explicitly whitelisted variable names.
func BuildEnv(passthrough []string) []string {
	allowed := make(map[string]bool, len(alwaysEnv)+len(passthrough))
	for _, k := range alwaysEnv {
		allowed[k] = true
	}
	for _, k := range passthrough {
		allowed[k] = true
	}

	var env []string
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if ok && allowed[name] {
			env = append(env, kv)
		}
	}
	return env
}
