package dataset

import (
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(sampleSchema))
	})
	return schema, schemaErr
}

// Problem is one invalid line.
type Problem struct {
	Line   int      `json:"line"`
	Errors []string `json:"errors"`
}

// Report summarizes a verification pass.
type Report struct {
	Path     string    `json:"path"`
	Lines    int       `json:"lines"`
	Valid    int       `json:"valid"`
	Problems []Problem `json:"problems,omitempty"`
}

// OK reports whether every line verified.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Verify checks every line of path: it must be JSON, satisfy the sample schema,
// and its target_element_id must resolve to an element of its own
// screen_state whose id matches its position.
//
// Line-level problems are collected into the report; only I/O failures return
// an error.
func Verify(path string) (*Report, error) {
	report := &Report{Path: path}
	err := ScanFile(path, func(line int, raw []byte) error {
		report.Lines++
		errs, err := VerifyLine(raw)
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			report.Problems = append(report.Problems, Problem{Line: line, Errors: errs})
			return nil
		}
		report.Valid++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// VerifyLine returns the problems found in one dataset line. The error is
// non-nil only when the schema itself cannot be loaded.
func VerifyLine(raw []byte) ([]string, error) {
	if !gjson.ValidBytes(raw) {
		return []string{"line is not valid JSON"}, nil
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load sample schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{fmt.Sprintf("schema validation error: %v", err)}, nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	if len(problems) > 0 {
		return problems, nil
	}

	doc := gjson.ParseBytes(raw)
	elements := doc.Get("screen_state.elements").Array()
	for i, e := range elements {
		if id := e.Get("id").Int(); id != int64(i) {
			problems = append(problems, fmt.Sprintf("element at position %d has id %d", i, id))
			break
		}
	}

	target := doc.Get("target_element_id").Int()
	if target < 0 || target >= int64(len(elements)) {
		problems = append(problems, fmt.Sprintf("target_element_id %d does not resolve in a snapshot of %d elements", target, len(elements)))
	}
	return problems, nil
}
