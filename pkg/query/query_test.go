package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/goax/pkg/domain/element"
	axerrors "github.com/dshills/goax/pkg/errors"
)

func sampleElement() element.Element {
	v := "hello"
	return element.Element{
		ID:      3,
		Role:    element.RoleTextField,
		Label:   "Search Files",
		BBox:    element.BoundingBox{X: 10, Y: 20, Width: 200, Height: 24},
		Enabled: true,
		Value:   &v,
		Actions: []string{"AXConfirm"},
		Depth:   2,
	}
}

func TestCompilePredicate(t *testing.T) {
	e := sampleElement()

	tests := []struct {
		expr string
		want bool
	}{
		{`role == "textfield"`, true},
		{`enabled && width > 100`, true},
		{`focused`, false},
		{`icontains(label, "search")`, true},
		{`hasPrefix(label, "SEARCH")`, true},
		{`hasPrefix(label, "files")`, false},
		{`label contains "Files"`, true},
		{`"AXConfirm" in actions and depth <= 2`, true},
		{`has_value and value == "hello"`, true},
		{`not(enabled)`, false},
		{`x + width > 300`, false},
		{`id == 3`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			pred, err := CompilePredicate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred(e))
		})
	}
}

func TestCompilePredicate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr error
	}{
		{"empty", "   ", ErrInvalidExpression},
		{"unknown variable", `colour == "red"`, ErrUndefinedVariable},
		{"not boolean", `width + 1`, ErrInvalidExpression},
		{"syntax", `role ==`, ErrInvalidExpression},
		{"unsafe", `os.Exit(1)`, ErrUnsafeOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompilePredicate(tt.expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.True(t, axerrors.Is(err, axerrors.Invalid))
		})
	}
}

func TestCompiler_Caches(t *testing.T) {
	c := NewCompiler()
	_, err := c.Compile("enabled")
	require.NoError(t, err)
	_, err = c.Compile("enabled")
	require.NoError(t, err)
	assert.Len(t, c.cache, 1)
}

func TestPredicate_NilValue(t *testing.T) {
	e := sampleElement()
	e.Value = nil
	e.Actions = nil

	pred, err := CompilePredicate(`!has_value && value == "" && len(actions) == 0`)
	require.NoError(t, err)
	assert.True(t, pred(e))
}

func TestRenderer(t *testing.T) {
	vars := map[string]string{"label": "ok", "role": "button"}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"plain", "click ${label}", "click ok"},
		{"two vars", "click the ${label} ${role}", "click the ok button"},
		{"spaces inside braces", "press ${ label }", "press ok"},
		{"function", "${upper(label)} now", "OK now"},
		{"capitalize", "${capitalize(role)}", "Button"},
		{"default literal", "${default(missing, 'none')}", "none"},
		{"escape", `cost \${label}`, "cost ${label}"},
		{"missing lenient", "select ${missing}", "select "},
		{"no refs", "just text", "just text"},
	}

	r := NewRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.tmpl, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderer_Errors(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render("click ${label", map[string]string{})
	assert.True(t, errors.Is(err, ErrInvalidTemplate))

	_, err = r.Render("click ${}", map[string]string{})
	assert.True(t, errors.Is(err, ErrInvalidTemplate))

	_, err = r.Render("${shout(label)}", map[string]string{})
	assert.True(t, errors.Is(err, ErrUnknownFunction))

	_, err = r.Render("x", nil)
	assert.True(t, errors.Is(err, ErrNilContext))

	strict := NewRenderer()
	strict.SetStrictMode(true)
	_, err = strict.Render("${missing}", map[string]string{})
	assert.True(t, errors.Is(err, ErrUndefinedVariable))

	withDefault := NewRenderer()
	withDefault.SetDefaultValue("?")
	got, err := withDefault.Render("${missing}", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "?", got)

	assert.NoError(t, r.Validate("click the ${label} ${role}"))
	assert.Error(t, r.Validate("click ${label"))
}

const sampleLine = `{"command":"click the ok button","target_element_id":0,` +
	`"screen_state":{"focused_app":"Dialog","elements":[` +
	`{"id":0,"role":"button","label":"OK","enabled":true},` +
	`{"id":1,"role":"button","label":"Cancel","enabled":false},` +
	`{"id":2,"role":"textfield","label":"","enabled":true}]}}`

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		path string
		want interface{}
	}{
		{"field", "$.command", "click the ok button"},
		{"native gjson", "screen_state.focused_app", "Dialog"},
		{"index", "$.screen_state.elements[1].label", "Cancel"},
		{"wildcard", "$.screen_state.elements[*].role", []interface{}{"button", "button", "textfield"}},
		{"filter", "$.screen_state.elements[?(@.enabled == true)].label", []interface{}{"OK", ""}},
		{"and filter", `$.screen_state.elements[?(@.enabled == true && @.role == "button")].label`, []interface{}{"OK"}},
		{"length", "$.screen_state.elements.length()", 3},
		{"number", "$.target_element_id", 0},
		{"missing", "$.nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Query([]byte(sampleLine), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_Errors(t *testing.T) {
	_, err := Query(nil, "$.command")
	assert.True(t, errors.Is(err, ErrNilData))

	_, err = Query([]byte("{not json"), "$.command")
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = Query([]byte(sampleLine), "$.screen_state.elements[0")
	assert.True(t, errors.Is(err, ErrInvalidPath))

	_, err = Query([]byte(sampleLine), "$..label")
	assert.True(t, errors.Is(err, ErrInvalidPath))

	_, err = Query([]byte(sampleLine), "")
	assert.True(t, errors.Is(err, ErrInvalidPath))

	root, err := Query([]byte(sampleLine), "$")
	require.NoError(t, err)
	assert.IsType(t, map[string]interface{}{}, root)
}
