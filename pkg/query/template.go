package query

import (
	"fmt"
	"strings"
)

// Renderer expands ${var} references in command templates.
//
// Supported forms: ${name}, ${fn(arg, ...)} with the helpers upper, lower,
// capitalize, trim and default, and \$ to emit a literal dollar sign.
//
// Thread-safety: configure the renderer before use; Render itself does not
// mutate the renderer.
type Renderer struct {
	strict       bool
	defaultValue string
}

// NewRenderer creates a lenient renderer: missing variables render as "".
func NewRenderer() *Renderer {
	return &Renderer{}
}

// SetStrictMode configures whether missing variables are an error.
func (r *Renderer) SetStrictMode(strict bool) {
	r.strict = strict
}

// SetDefaultValue sets what missing variables render as in lenient mode.
func (r *Renderer) SetDefaultValue(v string) {
	r.defaultValue = v
}

// Render expands tmpl against vars.
func (r *Renderer) Render(tmpl string, vars map[string]string) (string, error) {
	if vars == nil {
		return "", ErrNilContext
	}

	var out strings.Builder
	n := len(tmpl)
	for i := 0; i < n; {
		if i < n-1 && tmpl[i] == '\\' && tmpl[i+1] == '$' {
			out.WriteByte('$')
			i += 2
			continue
		}

		if i < n-1 && tmpl[i] == '$' && tmpl[i+1] == '{' {
			end := strings.Index(tmpl[i+2:], "}")
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed brace in template", ErrInvalidTemplate)
			}
			end += i + 2

			ref := strings.TrimSpace(tmpl[i+2 : end])
			if ref == "" {
				return "", fmt.Errorf("%w: empty variable name", ErrInvalidTemplate)
			}
			val, err := r.evaluate(ref, vars)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = end + 1
			continue
		}

		out.WriteByte(tmpl[i])
		i++
	}
	return out.String(), nil
}

// Validate reports whether tmpl parses, without requiring any variable.
func (r *Renderer) Validate(tmpl string) error {
	lenient := &Renderer{}
	_, err := lenient.Render(tmpl, map[string]string{})
	return err
}

func (r *Renderer) evaluate(ref string, vars map[string]string) (string, error) {
	if open := strings.Index(ref, "("); open != -1 && strings.HasSuffix(ref, ")") {
		name := strings.TrimSpace(ref[:open])
		args, err := r.arguments(ref[open+1:len(ref)-1], vars)
		if err != nil {
			return "", err
		}
		return r.call(name, args)
	}
	v, ok, err := r.lookup(ref, vars)
	if err != nil {
		return "", err
	}
	if !ok {
		return r.defaultValue, nil
	}
	return v, nil
}

func (r *Renderer) lookup(name string, vars map[string]string) (string, bool, error) {
	v, ok := vars[name]
	if !ok && r.strict {
		return "", false, fmt.Errorf("%w: %s", ErrUndefinedVariable, name)
	}
	return v, ok, nil
}

// arguments resolves a comma-separated list of quoted literals and variable names.
func (r *Renderer) arguments(list string, vars map[string]string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var args []string
	for _, part := range splitArgs(list) {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && (part[0] == '\'' || part[0] == '"') && part[len(part)-1] == part[0] {
			args = append(args, part[1:len(part)-1])
			continue
		}
		// Missing variables are passed as "" so default() can replace them.
		args = append(args, vars[part])
	}
	return args, nil
}

func (r *Renderer) call(name string, args []string) (string, error) {
	one := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%s requires 1 argument", name)
		}
		return args[0], nil
	}

	switch name {
	case "upper":
		s, err := one()
		return strings.ToUpper(s), err
	case "lower":
		s, err := one()
		return strings.ToLower(s), err
	case "trim":
		s, err := one()
		return strings.TrimSpace(s), err
	case "capitalize":
		s, err := one()
		if err != nil || s == "" {
			return s, err
		}
		return strings.ToUpper(s[:1]) + s[1:], nil
	case "default":
		if len(args) != 2 {
			return "", fmt.Errorf("default requires 2 arguments")
		}
		if args[0] == "" {
			return args[1], nil
		}
		return args[0], nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFunction, name)
}

// splitArgs splits by comma, respecting quoted strings.
func splitArgs(s string) []string {
	var parts []string
	var cur strings.Builder
	var quote rune

	for i, ch := range s {
		switch {
		case (ch == '\'' || ch == '"') && (i == 0 || s[i-1] != '\\'):
			if quote == 0 {
				quote = ch
			} else if ch == quote {
				quote = 0
			}
			cur.WriteRune(ch)
		case ch == ',' && quote == 0:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
