package executor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PytestParser parses pytest's verbose terminal output: per-test status
// lines plus the authoritative summary line at the bottom.
type PytestParser struct{}

var (
	pytestTestLine = regexp.MustCompile(`^(\S+::\S+)\s+(PASSED|FAILED|SKIPPED|ERROR|XFAIL|XPASS)`)
	pytestPassed   = regexp.MustCompile(`(\d+) passed`)
	pytestFailed   = regexp.MustCompile(`(\d+) failed`)
	pytestSkipped  = regexp.MustCompile(`(\d+) skipped`)
	pytestErrors   = regexp.MustCompile(`(\d+) error`)
)

func (p *PytestParser) Parse(stdout string, stderr string, exitCode int) TestResult {
	lines := strings.Split(stdout, "\n")

	var steps []StepResult
	var trace string
	for i, line := range lines {
		m := pytestTestLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		status := pytestStepStatus(m[2])
		steps = append(steps, StepResult{
			Number: len(steps) + 1,
			Name:   m[1],
			Status: status,
		})
		if trace == "" && (status == ResultFailed || status == ResultError) {
			trace = indentedBlock(lines, i+1)
		}
	}
	if trace == "" {
		trace = failuresSection(lines)
	}

	// Counts from the summary line are authoritative; per-test lines only
	// supply steps and traces.
	passed := lastCount(pytestPassed, stdout)
	failed := lastCount(pytestFailed, stdout)
	skipped := lastCount(pytestSkipped, stdout)
	errors := lastCount(pytestErrors, stdout)

	if passed+failed+skipped+errors == 0 {
		// No summary line: count from the per-test lines instead.
		for _, s := range steps {
			switch s.Status {
			case ResultPassed:
				passed++
			case ResultFailed:
				failed++
			case ResultSkipped:
				skipped++
			default:
				errors++
			}
		}
	}

	res := TestResult{
		Message:    fmt.Sprintf("%d passed, %d failed, %d skipped, %d errors", passed, failed, skipped, errors),
		Steps:      steps,
		StackTrace: truncateTrace(trace),
	}
	switch {
	case errors > 0:
		res.Status = ResultError
		res.ErrorMessage = fmt.Sprintf("%d collection or runtime errors", errors)
	case failed > 0:
		res.Status = ResultFailed
		res.ErrorMessage = fmt.Sprintf("%d tests failed", failed)
	case passed > 0:
		res.Status = ResultPassed
	case skipped > 0:
		res.Status = ResultSkipped
	case exitCode == 0:
		res.Status = ResultPassed
	default:
		res.Status = ResultFailed
		res.ErrorMessage = fmt.Sprintf("exit code %d with no recognized test output", exitCode)
	}
	return res
}

func pytestStepStatus(word string) ResultStatus {
	switch word {
	case "PASSED", "XPASS":
		return ResultPassed
	case "FAILED":
		return ResultFailed
	case "SKIPPED", "XFAIL":
		return ResultSkipped
	default:
		return ResultError
	}
}

// lastCount returns the count from the last match of re in s, so the
// final summary line wins over any interim output.
func lastCount(re *regexp.Regexp, s string) int {
	matches := re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(matches[len(matches)-1][1])
	return n
}

// indentedBlock captures the run of indented lines starting at idx.
func indentedBlock(lines []string, idx int) string {
	var b strings.Builder
	for _, line := range lines[min(idx, len(lines)):] {
		if line == "" || (!strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t")) {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// failuresSection captures everything between the FAILURES banner and
// the next banner line.
func failuresSection(lines []string) string {
	var b strings.Builder
	in := false
	for _, line := range lines {
		switch {
		case strings.Contains(line, "= FAILURES =") || strings.Contains(line, "= ERRORS ="):
			in = true
		case in && strings.HasPrefix(line, "=="):
			return strings.TrimSpace(b.String())
		case in:
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}
