package fixture

import (
	"fmt"
	"sync"

	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/provider"
)

// Performed records one native action the provider executed.
type Performed struct {
	Label  string
	Role   string
	Action provider.NativeAction
}

// Provider serves a Tree through the provider.Provider interface. Handles are
// the *App and *Node pointers of the tree.
type Provider struct {
	mu        sync.Mutex
	tree      *Tree
	performed []Performed
}

var _ provider.Provider = (*Provider)(nil)

// New creates a provider over tree.
func New(tree *Tree) *Provider {
	return &Provider{tree: tree}
}

// Open loads a fixture file and wraps it in a Provider.
func Open(path string) (*Provider, error) {
	tree, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(tree), nil
}

// Update mutates the tree under the provider lock. Tests use it to change the
// UI between captures.
func (p *Provider) Update(fn func(t *Tree)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.tree)
}

// Performed returns the native actions executed so far.
func (p *Provider) Performed() []Performed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Performed(nil), p.performed...)
}

// FindNode returns the first node in the frontmost app, in pre-order, whose
// label equals label.
func (p *Provider) FindNode(label string) *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.findLocked(func(n *Node) bool { return n.Label == label })
}

func (p *Provider) findLocked(match func(*Node) bool) *Node {
	app := p.tree.frontmost()
	if app == nil {
		return nil
	}
	var found *Node
	app.Root.walk(func(n *Node) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FrontmostApp implements provider.Provider.
func (p *Provider) FrontmostApp() (types.AppHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tree.Denied {
		return nil, axerrors.New(axerrors.PermissionDenied, "frontmost app", "accessibility access not granted")
	}
	if p.tree.Unavailable {
		return nil, axerrors.New(axerrors.ProviderUnavailable, "frontmost app", "no frontmost application")
	}
	app := p.tree.frontmost()
	if app == nil {
		return nil, axerrors.New(axerrors.ProviderUnavailable, "frontmost app", "application %q not found", p.tree.Frontmost)
	}
	return app, nil
}

// Root implements provider.Provider.
func (p *Provider) Root(h types.AppHandle) (types.ElementHandle, error) {
	app, err := appOf(h)
	if err != nil {
		return nil, err
	}
	return app.Root, nil
}

// AppName implements provider.Provider.
func (p *Provider) AppName(h types.AppHandle) (string, error) {
	app, err := appOf(h)
	if err != nil {
		return "", err
	}
	return app.Name, nil
}

// ScreenSize implements provider.Provider.
func (p *Provider) ScreenSize() (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tree.Screen.Width, p.tree.Screen.Height, nil
}

// Children implements provider.Provider.
func (p *Provider) Children(h types.ElementHandle) ([]types.ElementHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := nodeOf("children", h)
	if err != nil {
		return nil, err
	}
	if n.Denied {
		return nil, axerrors.New(axerrors.PermissionDenied, "children", "access to %q denied", n.Label)
	}
	if n.Fail == FailChildren {
		return nil, axerrors.New(axerrors.ProviderUnavailable, "children", "children of %q unavailable", n.Label)
	}
	out := make([]types.ElementHandle, 0, len(n.Children))
	for _, c := range n.Children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// Attributes implements provider.Provider.
func (p *Provider) Attributes(h types.ElementHandle) (provider.Attributes, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := nodeOf("attributes", h)
	if err != nil {
		return provider.Attributes{}, err
	}
	if n.Denied {
		return provider.Attributes{}, axerrors.New(axerrors.PermissionDenied, "attributes", "access to %q denied", n.Label)
	}
	if n.Fail == FailAttributes {
		return provider.Attributes{}, axerrors.New(axerrors.ProviderUnavailable, "attributes", "attributes of %q unavailable", n.Label)
	}
	return n.attributes(), nil
}

// PerformAction implements provider.Provider.
func (p *Provider) PerformAction(h types.ElementHandle, action provider.NativeAction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := nodeOf("perform action", h)
	if err != nil {
		return err
	}
	if n.Denied {
		return axerrors.New(axerrors.PermissionDenied, "perform action", "access to %q denied", n.Label)
	}
	if !n.supports(action.Kind) {
		return fmt.Errorf("%s on %q: %w", action.Kind, n.Label, provider.ErrUnsupported)
	}

	switch action.Kind {
	case provider.NativeFocus:
		p.focusLocked(n)
	case provider.NativeSetValue:
		v := action.Value
		n.Value = &v
	}
	p.performed = append(p.performed, Performed{Label: n.Label, Role: n.Role, Action: action})
	return nil
}

func (p *Provider) focusLocked(target *Node) {
	app := p.tree.frontmost()
	if app == nil {
		return
	}
	app.Root.walk(func(n *Node) bool {
		n.Focused = n == target
		return true
	})
}

// nodeAt returns the deepest enabled interactive node of the frontmost app
// containing the point.
func (p *Provider) nodeAt(x, y int) *Node {
	app := p.tree.frontmost()
	if app == nil {
		return nil
	}
	var hit *Node
	app.Root.walk(func(n *Node) bool {
		box := n.attributes().BBox
		if box.Contains(x, y) && n.IsEnabled() && provider.IsInteractiveRole(n.Role) {
			hit = n
		}
		return true
	})
	return hit
}

func appOf(h types.AppHandle) (*App, error) {
	app, ok := h.(*App)
	if !ok || app == nil {
		return nil, axerrors.New(axerrors.ProviderUnavailable, "app", "foreign application handle %T", h)
	}
	return app, nil
}

func nodeOf(op string, h types.ElementHandle) (*Node, error) {
	n, ok := h.(*Node)
	if !ok || n == nil {
		return nil, axerrors.New(axerrors.ProviderUnavailable, op, "foreign element handle %T", h)
	}
	return n, nil
}
