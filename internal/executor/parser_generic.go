package executor

import (
	"fmt"
	"strings"
)

// GenericParser is the exit-code-only fallback for frameworks without a
// dedicated parser.
type GenericParser struct{}

func (p *GenericParser) Parse(stdout string, stderr string, exitCode int) TestResult {
	if exitCode == 0 {
		return TestResult{
			Status:  ResultPassed,
			Message: "exit code 0",
		}
	}

	errMsg := strings.TrimSpace(stderr)
	if errMsg == "" {
		errMsg = strings.TrimSpace(stdout)
	}
	return TestResult{
		Status:       ResultFailed,
		Message:      fmt.Sprintf("exit code %d", exitCode),
		ErrorMessage: truncateTrace(errMsg),
	}
}
