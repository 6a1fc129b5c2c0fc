package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Path queries one JSON document. It accepts native gjson paths
// (screen_state.elements.#.label) as well as the common JSONPath forms:
//
//	$.command
//	$.screen_state.elements[0].label
//	$.screen_state.elements[*].role
//	$.screen_state.elements[?(@.enabled == true)].label
//	$.screen_state.elements.length()
func Path(data []byte, path string) (gjson.Result, error) {
	if len(data) == 0 {
		return gjson.Result{}, ErrNilData
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%w: document is not valid JSON", ErrTypeMismatch)
	}
	gpath, err := ToGJSON(path)
	if err != nil {
		return gjson.Result{}, err
	}
	if gpath == "" {
		return gjson.ParseBytes(data), nil
	}
	return gjson.GetBytes(data, gpath), nil
}

// Query runs Path and converts the result to plain Go values. A path that
// matches nothing yields nil.
func Query(data []byte, path string) (interface{}, error) {
	res, err := Path(data, path)
	if err != nil {
		return nil, err
	}
	return Value(res), nil
}

// Value converts a gjson result to plain Go values: nil, bool, int, float64,
// string, []interface{} or map[string]interface{}.
func Value(res gjson.Result) interface{} {
	if !res.Exists() {
		return nil
	}
	switch res.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if res.Num == float64(int64(res.Num)) {
			return int(res.Num)
		}
		return res.Num
	case gjson.String:
		return res.Str
	case gjson.JSON:
		var v interface{}
		if err := json.Unmarshal([]byte(res.Raw), &v); err != nil {
			return res.Raw
		}
		return v
	default:
		return res.Value()
	}
}

// ToGJSON converts a JSONPath-style path into gjson syntax. Paths that do not
// start with $ are returned unchanged.
func ToGJSON(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrInvalidPath
	}
	if !strings.HasPrefix(path, "$") {
		return path, nil
	}
	if err := validateBrackets(path); err != nil {
		return "", err
	}
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: recursive descent is not supported", ErrInvalidPath)
	}

	out := strings.TrimPrefix(path, "$")
	out = strings.TrimPrefix(out, ".")
	out = strings.ReplaceAll(out, ".length()", ".#")
	out = convertFilters(out)
	out = convertBrackets(out)
	return out, nil
}

// convertFilters rewrites [?(@.a == 1 && @.b < 2)] as .#(a==1)#|#(b<2)#.
func convertFilters(path string) string {
	var out strings.Builder
	for i := 0; i < len(path); {
		if strings.HasPrefix(path[i:], "[?(") {
			depth := 1
			j := i + 3
			for j < len(path) && depth > 0 {
				switch path[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			if depth == 0 && j < len(path) && path[j] == ']' {
				cond := strings.ReplaceAll(path[i+3:j-1], "@.", "")
				parts := strings.Split(cond, "&&")
				out.WriteString(".#(" + compact(parts[0]) + ")#")
				for _, p := range parts[1:] {
					out.WriteString("|#(" + compact(p) + ")#")
				}
				i = j + 1
				continue
			}
		}
		out.WriteByte(path[i])
		i++
	}
	return out.String()
}

// compact removes spaces around comparison operators, outside quotes.
func compact(cond string) string {
	cond = strings.TrimSpace(cond)
	for _, op := range []string{"==", "!=", ">=", "<=", ">", "<", "%"} {
		cond = strings.ReplaceAll(cond, " "+op+" ", op)
	}
	return cond
}

// convertBrackets rewrites [n] as .n and [*] as .#, leaving filters alone.
func convertBrackets(path string) string {
	var out strings.Builder
	inFilter := 0
	for i := 0; i < len(path); i++ {
		switch {
		case strings.HasPrefix(path[i:], "#("):
			inFilter++
			out.WriteString("#(")
			i++
		case inFilter > 0 && path[i] == ')':
			inFilter--
			out.WriteByte(')')
		case inFilter == 0 && strings.HasPrefix(path[i:], "[*]"):
			out.WriteString(".#")
			i += 2
		case inFilter == 0 && path[i] == '[':
			end := strings.IndexByte(path[i:], ']')
			if end == -1 {
				out.WriteString(path[i:])
				return out.String()
			}
			out.WriteString("." + strings.Trim(path[i+1:i+end], `'"`))
			i += end
		default:
			out.WriteByte(path[i])
		}
	}
	return out.String()
}

func validateBrackets(path string) error {
	square, round := 0, 0
	for _, ch := range path {
		switch ch {
		case '[':
			square++
		case ']':
			square--
		case '(':
			round++
		case ')':
			round--
		}
		if square < 0 || round < 0 {
			return fmt.Errorf("%w: unbalanced brackets in %q", ErrInvalidPath, path)
		}
	}
	if square != 0 || round != 0 {
		return fmt.Errorf("%w: unbalanced brackets in %q", ErrInvalidPath, path)
	}
	return nil
}
