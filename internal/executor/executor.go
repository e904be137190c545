package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

// DefaultTimeout bounds a single script run when no timeout is
// configured.
const DefaultTimeout = 2 * time.Minute

// Executor launches one script at a time in an isolated child process.
// It always produces an ExecutionRecord: launch failures and path
// violations are recorded, never returned as errors, so the execution
// stage's one-record-per-script invariant holds.
type Executor struct {
	cmd       CommandRunner
	validator *PathValidator
	env       []string
	log       zerolog.Logger
}

// NewExecutor builds an Executor. env is the full child environment,
// typically from BuildEnv.
func NewExecutor(cmd CommandRunner, validator *PathValidator, env []string, log zerolog.Logger) *Executor {
	return &Executor{cmd: cmd, validator: validator, env: env, log: log}
}

// Run executes one script with the given timeout and returns its
// record. The child runs in the script's own directory.
func (e *Executor) Run(ctx context.Context, script pipeline.Script, timeout time.Duration) ExecutionRecord {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rec := ExecutionRecord{
		TestName:   script.TestCaseName,
		TestCaseID: script.TestCaseID,
		ScriptPath: script.Path,
		Framework:  script.Framework,
	}
	if rec.TestName == "" {
		rec.TestName = filepath.Base(script.Path)
	}

	if e.validator != nil {
		if err := e.validator.Validate(script.Path); err != nil {
			rec.ExitCode = -1
			rec.LaunchError = err.Error()
			return rec
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, exitCode, err := e.cmd.Run(runCtx, filepath.Dir(script.Path), frameworkArgv(script.Framework, script.Path), e.env)
	rec.Duration = time.Since(start)
	rec.Stdout = stdout
	rec.Stderr = stderr
	rec.ExitCode = exitCode

	if runCtx.Err() == context.DeadlineExceeded {
		rec.TimedOut = true
		rec.ExitCode = -1
		e.log.Warn().Str("script", script.Path).Dur("timeout", timeout).Msg("script timed out")
		return rec
	}
	if err != nil {
		rec.ExitCode = -1
		rec.LaunchError = err.Error()
		e.log.Warn().Str("script", script.Path).Err(err).Msg("script launch failed")
	}
	return rec
}

// frameworkArgv builds the launch command for a script.
func frameworkArgv(framework, path string) []string {
	switch framework {
	case "pytest":
		return []string{"python", "-m", "pytest", path, "-v", "--tb=short", "--color=no"}
	case "unittest":
		return []string{"python", path, "-v"}
	default:
		return []string{"sh", path}
	}
}

// SupportedFramework reports whether a dedicated launch command exists
// for the framework name. Anything else runs through sh.
func SupportedFramework(name string) bool {
	switch name {
	case "pytest", "unittest", "generic":
		return true
	}
	return false
}

// Collect turns an ExecutionRecord into exactly one canonical
// TestResult. A parser panic on malformed output degrades to an ERROR
// result; it never escapes.
func Collect(rec ExecutionRecord, parsers map[string]Parser) (res TestResult) {
	defer func() {
		if r := recover(); r != nil {
			res = TestResult{
				TestName:     rec.TestName,
				TestCaseID:   rec.TestCaseID,
				Status:       ResultError,
				ErrorMessage: fmt.Sprintf("output parsing panicked: %v", r),
				DurationMs:   int(rec.Duration.Milliseconds()),
			}
		}
	}()

	switch {
	case rec.LaunchError != "":
		res = TestResult{
			Status:       ResultError,
			Message:      "script did not run",
			ErrorMessage: rec.LaunchError,
		}
	case rec.TimedOut:
		res = TestResult{
			Status:       ResultFailed,
			Message:      "execution timed out",
			ErrorMessage: "script exceeded its time budget and was killed",
			TimedOut:     true,
		}
	case rec.ExitCode != 0 && isBlank(rec.Stdout) && isBlank(rec.Stderr):
		res = TestResult{
			Status:       ResultError,
			Message:      fmt.Sprintf("exit code %d", rec.ExitCode),
			ErrorMessage: "no output produced",
		}
	default:
		parser, ok := parsers[rec.Framework]
		if !ok {
			parser = parsers["generic"]
		}
		res = parser.Parse(rec.Stdout, rec.Stderr, rec.ExitCode)
	}

	res.TestName = rec.TestName
	res.TestCaseID = rec.TestCaseID
	res.DurationMs = int(rec.Duration.Milliseconds())
	return res
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
