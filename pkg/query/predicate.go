// Package query holds the small languages goax accepts from its users:
// expr-lang predicates over elements (--where), JSONPath-style queries over
// dataset records, and ${var} command templates.
package query

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dshills/goax/pkg/domain/element"
)

// Env is the variable set a predicate sees for one element.
type Env struct {
	ID          int      `expr:"id"`
	Role        string   `expr:"role"`
	Label       string   `expr:"label"`
	Description string   `expr:"description"`
	Value       string   `expr:"value"`
	HasValue    bool     `expr:"has_value"`
	Enabled     bool     `expr:"enabled"`
	Focused     bool     `expr:"focused"`
	Depth       int      `expr:"depth"`
	X           int      `expr:"x"`
	Y           int      `expr:"y"`
	Width       int      `expr:"width"`
	Height      int      `expr:"height"`
	Actions     []string `expr:"actions"`
}

// EnvOf builds the predicate environment for e.
func EnvOf(e element.Element) Env {
	env := Env{
		ID:       int(e.ID),
		Role:     string(e.Role),
		Label:    e.Label,
		Value:    e.ValueString(),
		HasValue: e.Value != nil,
		Enabled:  e.Enabled,
		Focused:  e.Focused,
		Depth:    e.Depth,
		X:        e.BBox.X,
		Y:        e.BBox.Y,
		Width:    e.BBox.Width,
		Height:   e.BBox.Height,
		Actions:  e.Actions,
	}
	if e.Description != nil {
		env.Description = *e.Description
	}
	if env.Actions == nil {
		env.Actions = []string{}
	}
	return env
}

// unsafePatterns are rejected before compilation. The environment exposes no
// such names, but a clear error beats a confusing "unknown name".
var unsafePatterns = []string{
	"os.",
	"exec.",
	"http.",
	"net.",
	"syscall.",
	"unsafe.",
	"__proto__",
	"readfile",
	"writefile",
}

// Compiler compiles predicate expressions and caches the programs.
type Compiler struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

// NewCompiler creates an empty compiler.
func NewCompiler() *Compiler {
	return &Compiler{cache: make(map[string]*vm.Program)}
}

var defaultCompiler = NewCompiler()

// CompilePredicate compiles src with the package-level compiler.
func CompilePredicate(src string) (element.Predicate, error) {
	return defaultCompiler.Compile(src)
}

// Compile turns a boolean expression over Env into an element predicate.
//
// Examples:
//
//	enabled && width > 50
//	role == "button" && icontains(label, "save")
//	"AXPress" in actions and depth <= 3
func (c *Compiler) Compile(src string) (element.Predicate, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}
	lower := strings.ToLower(src)
	for _, pattern := range unsafePatterns {
		if strings.Contains(lower, pattern) {
			return nil, ErrUnsafeOperation
		}
	}

	program, err := c.program(src)
	if err != nil {
		return nil, err
	}

	return func(e element.Element) bool {
		env := EnvOf(e)
		out, err := expr.Run(program, env)
		if err != nil {
			return false
		}
		b, ok := out.(bool)
		return ok && b
	}, nil
}

func (c *Compiler) program(src string) (*vm.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.cache[src]; ok {
		return p, nil
	}

	program, err := expr.Compile(src,
		expr.Env(Env{}),
		expr.AsBool(),
		expr.Function("icontains", func(params ...interface{}) (interface{}, error) {
			s, err := extractParam[string](params, 0, "string")
			if err != nil {
				return false, nil
			}
			sub, err := extractParam[string](params, 1, "substring")
			if err != nil {
				return false, nil
			}
			return strings.Contains(strings.ToLower(s), strings.ToLower(sub)), nil
		}),
		expr.Function("hasPrefix", func(params ...interface{}) (interface{}, error) {
			s, err := extractParam[string](params, 0, "string")
			if err != nil {
				return false, nil
			}
			prefix, err := extractParam[string](params, 1, "prefix")
			if err != nil {
				return false, nil
			}
			return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix)), nil
		}),
	)
	if err != nil {
		if strings.Contains(err.Error(), "unknown name") {
			return nil, fmt.Errorf("%w: %v", ErrUndefinedVariable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	c.cache[src] = program
	return program, nil
}

// extractParam is a generic helper for type-safe parameter extraction from
// expression function parameters.
func extractParam[T any](params []interface{}, index int, name string) (T, error) {
	var zero T

	if index >= len(params) {
		return zero, fmt.Errorf("parameter %d (%s) not provided", index, name)
	}
	if v, ok := params[index].(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("parameter %d (%s) must be %T, got %T", index, name, zero, params[index])
}
