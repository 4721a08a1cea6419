// Package config provides the spec document model and helpers for dtl runs.
//
// This file adds a lightweight linter/validator for Spec values. It performs
// static checks over a decoded Spec and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"dtl/internal/engine"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Spec.
//
// Path is a dotted path into the document (e.g. "dataSources.orders.type",
// "steps[2]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue carries error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation / linting of a Spec without executing
// it. It does not mutate the spec; it returns a slice of Issue values, and
// callers decide whether to treat warnings as fatal.
//
// Step bodies are checked by running them through the engine's own step
// decoder, so every spec the engine would fatally reject at decode time
// produces an error-severity issue here, and a spec with no error-severity
// issues decodes cleanly.
//
// Example:
//
//	spec, err := config.Load(path)
//	if err != nil { ... }
//	for _, iss := range config.Validate(spec) {
//	    fmt.Fprintln(os.Stderr, iss.Error())
//	}
func Validate(s Spec) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Version) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "version",
			Message:  "version is empty; set one so spec dialect changes stay detectable",
		})
	}

	issues = append(issues, validateDataSources(s.DataSources)...)
	issues = append(issues, validateSteps(s)...)

	return issues
}

// validateDataSources checks every declared source. Source names are walked
// in sorted order so issue output is deterministic.
func validateDataSources(sources map[string]DataSource) []Issue {
	var issues []Issue

	if len(sources) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "dataSources",
			Message:  "no dataSources declared; steps have nothing to read",
		})
		return issues
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		issues = append(issues, validateDataSource(name, sources[name])...)
	}
	return issues
}

func validateDataSource(name string, ds DataSource) []Issue {
	var issues []Issue
	base := "dataSources." + name

	switch ds.Type {
	case "file":
		switch ds.Format {
		case "jsonl", "json":
		case "":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".format",
				Message:  "file source requires format (jsonl or json)",
			})
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".format",
				Message:  fmt.Sprintf("unknown file format %q (want jsonl or json)", ds.Format),
			})
		}
		if strings.TrimSpace(ds.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".path",
				Message:  "file source requires a non-empty path",
			})
		}

	case "inline":
		if len(ds.Data) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".data",
				Message:  "inline source requires a data array",
			})
			break
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(ds.Data, &arr); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".data",
				Message:  "inline data must be a JSON array of documents",
			})
		}

	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     base + ".type",
			Message:  "source type must not be empty (want file or inline)",
		})

	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     base + ".type",
			Message:  fmt.Sprintf("unknown source type %q (want file or inline)", ds.Type),
		})
	}

	return issues
}

// validateSteps decodes every step through the engine and tracks which
// dataset names exist at each point, so dangling or forward references are
// caught before anything runs.
func validateSteps(s Spec) []Issue {
	var issues []Issue

	if len(s.Steps) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "steps",
			Message:  "steps must not be empty",
		})
		return issues
	}

	known := make(map[string]bool, len(s.DataSources)+len(s.Steps))
	for name := range s.DataSources {
		known[name] = true
	}

	for i, raw := range s.Steps {
		path := fmt.Sprintf("steps[%d]", i)

		st, err := engine.DecodeStep(raw)
		if err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  err.Error(),
			})
			continue
		}

		for _, in := range st.Inputs() {
			if !known[in] {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path,
					Message:  fmt.Sprintf("references dataset %q, which no dataSource and no prior step declares", in),
				})
			}
		}

		out := st.Output()
		if _, isSource := s.DataSources[out]; isSource {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".outputAs",
				Message:  fmt.Sprintf("output %q shadows a dataSource; later steps see only the step result", out),
			})
		}
		known[out] = true
	}

	return issues
}
