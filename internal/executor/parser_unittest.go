package executor

import (
	"fmt"
	"regexp"
	"strings"
)

// UnittestParser parses python unittest's runner output. unittest
// writes its progress and summary to stderr, so both streams are
// scanned.
type UnittestParser struct{}

var (
	unittestRan      = regexp.MustCompile(`Ran (\d+) tests? in`)
	unittestFailures = regexp.MustCompile(`failures=(\d+)`)
	unittestErrors   = regexp.MustCompile(`errors=(\d+)`)
	unittestSkipped  = regexp.MustCompile(`skipped=(\d+)`)
	unittestTestLine = regexp.MustCompile(`^(test\w+) \(([\w.]+)\) \.\.\. (ok|FAIL|ERROR|skipped.*)$`)
)

func (p *UnittestParser) Parse(stdout string, stderr string, exitCode int) TestResult {
	combined := stdout + "\n" + stderr
	lines := strings.Split(combined, "\n")

	var steps []StepResult
	for _, line := range lines {
		m := unittestTestLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		steps = append(steps, StepResult{
			Number: len(steps) + 1,
			Name:   m[2] + "." + m[1],
			Status: unittestStepStatus(m[3]),
		})
	}

	total := lastCount(unittestRan, combined)
	failures := lastCount(unittestFailures, combined)
	errors := lastCount(unittestErrors, combined)
	skipped := lastCount(unittestSkipped, combined)

	res := TestResult{
		Steps:      steps,
		StackTrace: truncateTrace(tracebackBlock(lines)),
	}

	if total == 0 {
		// No "Ran N tests" line means the runner never got going.
		if exitCode == 0 {
			res.Status = ResultPassed
			res.Message = "exit code 0"
		} else {
			res.Status = ResultError
			res.ErrorMessage = fmt.Sprintf("exit code %d with no test summary", exitCode)
		}
		return res
	}

	passed := total - failures - errors - skipped
	res.Message = fmt.Sprintf("%d passed, %d failed, %d skipped, %d errors", passed, failures, skipped, errors)
	switch {
	case errors > 0:
		res.Status = ResultError
		res.ErrorMessage = fmt.Sprintf("%d tests errored", errors)
	case failures > 0:
		res.Status = ResultFailed
		res.ErrorMessage = fmt.Sprintf("%d tests failed", failures)
	case passed > 0:
		res.Status = ResultPassed
	default:
		res.Status = ResultSkipped
	}
	return res
}

func unittestStepStatus(word string) ResultStatus {
	switch {
	case word == "ok":
		return ResultPassed
	case word == "FAIL":
		return ResultFailed
	case strings.HasPrefix(word, "skipped"):
		return ResultSkipped
	default:
		return ResultError
	}
}

// tracebackBlock captures from the first traceback header to the
// summary line.
func tracebackBlock(lines []string) string {
	var b strings.Builder
	in := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Traceback (most recent call last):"):
			in = true
			b.WriteString(line)
			b.WriteByte('\n')
		case in && (strings.HasPrefix(line, "Ran ") || strings.HasPrefix(line, "====")):
			return strings.TrimSpace(b.String())
		case in:
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}
