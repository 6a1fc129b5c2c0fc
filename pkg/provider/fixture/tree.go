// Package fixture implements provider.Provider and provider.Input over an
// in-memory tree described in YAML. It is the deterministic provider used by
// the tests and by the ax binary when no platform binding is linked.
package fixture

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/provider"
)

// Failure modes a node can be configured with.
const (
	FailAttributes = "attributes"
	FailChildren   = "children"
)

// Box is a YAML bounding box.
type Box struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Node is one element of a fixture tree.
type Node struct {
	Role        string   `yaml:"role"`
	Label       string   `yaml:"label,omitempty"`
	BBox        Box      `yaml:"bbox,omitempty"`
	Enabled     *bool    `yaml:"enabled,omitempty"`
	Focused     bool     `yaml:"focused,omitempty"`
	Value       *string  `yaml:"value,omitempty"`
	Description *string  `yaml:"description,omitempty"`
	Actions     []string `yaml:"actions,omitempty"`

	// Native lists the native actions the node supports. When omitted it is
	// derived from the role.
	Native []string `yaml:"native,omitempty"`
	// Fail injects a query failure: "attributes" or "children".
	Fail string `yaml:"fail,omitempty"`
	// Denied makes every query on the node a permission failure.
	Denied bool `yaml:"denied,omitempty"`

	Children []*Node `yaml:"children,omitempty"`
}

// IsEnabled applies the enabled-by-default rule.
func (n *Node) IsEnabled() bool {
	return n.Enabled == nil || *n.Enabled
}

func (n *Node) supports(kind provider.NativeActionKind) bool {
	if n.Native != nil {
		for _, k := range n.Native {
			if provider.NativeActionKind(k) == kind {
				return true
			}
		}
		return false
	}
	role := provider.NormalizeRole(n.Role)
	switch kind {
	case provider.NativePress, provider.NativeFocus:
		return provider.IsInteractiveRole(n.Role)
	case provider.NativeSetValue:
		return role.AcceptsText()
	}
	return false
}

func (n *Node) attributes() provider.Attributes {
	attrs := provider.Attributes{
		Role:        n.Role,
		Label:       n.Label,
		BBox:        element.NewBoundingBox(n.BBox.X, n.BBox.Y, n.BBox.Width, n.BBox.Height),
		Enabled:     n.IsEnabled(),
		Focused:     n.Focused,
		Description: n.Description,
		Actions:     append([]string(nil), n.Actions...),
	}
	if n.Label == "" && n.Description != nil {
		attrs.Label = *n.Description
	}
	if n.Value != nil {
		v := *n.Value
		attrs.Value = &v
	}
	return attrs
}

// walk visits n and its descendants in pre-order until fn returns false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if c != nil && !c.walk(fn) {
			return false
		}
	}
	return true
}

// App is one application in the fixture.
type App struct {
	Name string `yaml:"name"`
	Root *Node  `yaml:"root"`
}

// Screen is the fixture display size.
type Screen struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Tree is the whole fixture document.
//
// A single-application fixture may use the app/root shorthand instead of apps.
type Tree struct {
	App         string `yaml:"app,omitempty"`
	Root        *Node  `yaml:"root,omitempty"`
	Apps        []*App `yaml:"apps,omitempty"`
	Frontmost   string `yaml:"frontmost,omitempty"`
	Screen      Screen `yaml:"screen"`
	Denied      bool   `yaml:"denied,omitempty"`
	Unavailable bool   `yaml:"unavailable,omitempty"`
}

// Parse decodes a fixture tree from YAML bytes.
func Parse(data []byte) (*Tree, error) {
	if len(data) == 0 {
		return nil, errors.New("empty YAML input")
	}

	var t Tree
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads and parses a fixture file.
func LoadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(data)
}

func (t *Tree) normalize() error {
	if t.Root != nil {
		name := t.App
		if name == "" {
			name = "Fixture"
		}
		t.Apps = append([]*App{{Name: name, Root: t.Root}}, t.Apps...)
		t.Root = nil
		t.App = ""
	}
	if len(t.Apps) == 0 && !t.Unavailable {
		return errors.New("fixture has no applications")
	}
	for i, app := range t.Apps {
		if app == nil || app.Root == nil {
			return fmt.Errorf("application %d has no root element", i)
		}
		if app.Name == "" {
			return fmt.Errorf("application %d has no name", i)
		}
	}
	if t.Frontmost == "" && len(t.Apps) > 0 {
		t.Frontmost = t.Apps[0].Name
	}
	if t.Screen.Width == 0 && t.Screen.Height == 0 {
		t.Screen = Screen{Width: 1920, Height: 1080}
	}
	return nil
}

func (t *Tree) frontmost() *App {
	for _, app := range t.Apps {
		if app.Name == t.Frontmost {
			return app
		}
	}
	return nil
}
