package config

import (
	"fmt"

	"github.com/lucasnoah/testfactory/internal/approval"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedFormats is the set of valid report format names.
var recognizedFormats = map[string]bool{
	"json":     true,
	"markdown": true,
	"md":       true,
}

// recognizedFrameworks is the set of frameworks with a dedicated
// template and parser. Other names still run through the generic path,
// but a config naming one is almost always a typo.
var recognizedFrameworks = map[string]bool{
	"pytest":   true,
	"unittest": true,
	"generic":  true,
}

// Validate checks a PipelineConfig for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *PipelineConfig) []ValidationError {
	var errs []ValidationError
	p := cfg.Pipeline

	if p.Name == "" {
		errs = append(errs, ValidationError{Field: "pipeline.name", Message: "is required"})
	}
	if p.AppProfile == "" {
		errs = append(errs, ValidationError{Field: "pipeline.app_profile", Message: "is required"})
	}

	if _, ok := approval.ParseMode(p.HITL.Mode); !ok {
		errs = append(errs, ValidationError{
			Field:   "pipeline.hitl.mode",
			Message: fmt.Sprintf("unrecognized approval mode %q", p.HITL.Mode),
		})
	}

	if !recognizedFrameworks[p.Generation.Framework] {
		errs = append(errs, ValidationError{
			Field:   "pipeline.generation.framework",
			Message: fmt.Sprintf("unrecognized framework %q", p.Generation.Framework),
		})
	}

	for _, format := range p.Reporting.Formats {
		if !recognizedFormats[format] {
			errs = append(errs, ValidationError{
				Field:   "pipeline.reporting.formats",
				Message: fmt.Sprintf("unrecognized format %q", format),
			})
		}
	}

	return errs
}
