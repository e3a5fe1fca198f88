// Package testreport extracts failing tests from structured JSON test reports.
//
// Two report shapes are recognized:
//
//   - result-list (Vitest/Jest): {"testResults": [{"name", "status", "message", "assertionResults": [...]}]}
//   - suite/spec (Playwright):   {"suites": [{"file", "specs": [{"title", "ok", "error": {"message"}}], "suites": [...]}]}
//
// Anything else parses as ShapeUnrecognized with no failures; callers decide
// whether that is worth a warning or an error.
package testreport

import (
	"fmt"
	"os"

	"github.com/oraportal/claude-api/internal/errors"
	"github.com/tidwall/gjson"
)

// Shape identifies which report layout was detected
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeResultList
	ShapeSuiteSpec
)

func (s Shape) String() string {
	switch s {
	case ShapeResultList:
		return "result-list"
	case ShapeSuiteSpec:
		return "suite/spec"
	default:
		return "unrecognized"
	}
}

var (
	unknownTest  = "Unknown"
	unknownError = "Unknown error"
)

// Failure is one failing test, in report order. A nil field was absent (or
// null) in the report and encodes as JSON null.
type Failure struct {
	File  *string `json:"file"`
	Test  *string `json:"test"`
	Error *string `json:"error"`
}

// Result is the outcome of parsing a report
type Result struct {
	Shape    Shape
	Failures []Failure
}

// HasFailures reports whether any failing test was found
func (r Result) HasFailures() bool {
	return len(r.Failures) > 0
}

// ParseFile reads and parses a report from disk
func ParseFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, errors.FileIOError(err, path)
	}

	result, err := Parse(data)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.WithContext("path", path)
		}
		return Result{}, err
	}
	return result, nil
}

// Parse detects the report shape and collects failing entries. Invalid JSON
// is a MalformedReport error; a valid document of unknown shape is not.
func Parse(data []byte) (Result, error) {
	if !gjson.ValidBytes(data) {
		return Result{}, errors.MalformedReport(nil, "test report is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Result{Shape: ShapeUnrecognized}, nil
	}

	if results := root.Get("testResults"); results.Exists() {
		failures, err := parseResultList(results)
		if err != nil {
			return Result{}, err
		}
		return Result{Shape: ShapeResultList, Failures: failures}, nil
	}

	if suites := root.Get("suites"); suites.Exists() {
		if !suites.IsArray() {
			return Result{}, errors.MalformedReport(nil, fmt.Sprintf("suites must be an array, got %s", suites.Type))
		}
		var failures []Failure
		collectSuiteFailures(suites, nil, &failures)
		return Result{Shape: ShapeSuiteSpec, Failures: failures}, nil
	}

	return Result{Shape: ShapeUnrecognized}, nil
}

func parseResultList(results gjson.Result) ([]Failure, error) {
	if !results.IsArray() {
		return nil, errors.MalformedReport(nil, fmt.Sprintf("testResults must be an array, got %s", results.Type))
	}

	var failures []Failure
	results.ForEach(func(_, entry gjson.Result) bool {
		if entry.Get("status").String() != "failed" {
			return true
		}

		failures = append(failures, Failure{
			File:  stringOr(entry.Get("name"), nil),
			Test:  stringOr(entry.Get("assertionResults.0.title"), &unknownTest),
			Error: stringOr(entry.Get("message"), &unknownError),
		})
		return true
	})

	return failures, nil
}

// collectSuiteFailures walks suites depth-first in document order. Nested
// suites (describe blocks) inherit the file of their parent when they carry none.
func collectSuiteFailures(suites gjson.Result, parentFile *string, failures *[]Failure) {
	suites.ForEach(func(_, suite gjson.Result) bool {
		file := stringOr(suite.Get("file"), parentFile)

		suite.Get("specs").ForEach(func(_, spec gjson.Result) bool {
			if spec.Get("ok").Type != gjson.False {
				return true
			}
			*failures = append(*failures, Failure{
				File:  file,
				Test:  stringOr(spec.Get("title"), nil),
				Error: stringOr(spec.Get("error.message"), &unknownError),
			})
			return true
		})

		if nested := suite.Get("suites"); nested.IsArray() {
			collectSuiteFailures(nested, file, failures)
		}
		return true
	})
}

// stringOr returns fallback for an absent key and nil for an explicit null
func stringOr(value gjson.Result, fallback *string) *string {
	if !value.Exists() {
		if fallback == nil {
			return nil
		}
		s := *fallback
		return &s
	}
	if value.Type == gjson.Null {
		return nil
	}
	s := value.String()
	return &s
}
