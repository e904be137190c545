package executor

// Parser converts the raw output of one script run into a canonical
// TestResult. Parsers never return errors: malformed output degrades to
// a result the collector can still aggregate.
type Parser interface {
	Parse(stdout string, stderr string, exitCode int) TestResult
}

// parsers maps framework identifiers to their output parsers. Unknown
// frameworks fall back to "generic".
func defaultParsers() map[string]Parser {
	return map[string]Parser{
		"pytest":   &PytestParser{},
		"unittest": &UnittestParser{},
		"generic":  &GenericParser{},
	}
}
