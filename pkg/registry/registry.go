// Package registry resolves identifiers and selectors within one Snapshot.
//
// A Registry is bound to the generation of the snapshot it was built from.
// Identifiers carry no meaning across snapshots, so a Ref stamped with another
// generation never resolves. Find is first-match in traversal order; it does not
// check for ambiguity.
package registry

import (
	"fmt"

	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
)

// Ref is a generation-qualified element identifier.
type Ref struct {
	Generation types.Generation `json:"generation"`
	ID         types.ElementID  `json:"id"`
}

// String renders the ref as gen/id.
func (r Ref) String() string {
	return fmt.Sprintf("%d/%d", r.Generation, r.ID)
}

// Registry indexes one Snapshot.
type Registry struct {
	snap *element.Snapshot
}

// New builds a registry over snap.
func New(snap *element.Snapshot) (*Registry, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}
	return &Registry{snap: snap}, nil
}

// Snapshot returns the indexed snapshot.
func (r *Registry) Snapshot() *element.Snapshot {
	return r.snap
}

// Generation returns the generation the registry is bound to.
func (r *Registry) Generation() types.Generation {
	return r.snap.Generation
}

// Len returns the number of indexed elements.
func (r *Registry) Len() int {
	return r.snap.Len()
}

// Ref qualifies id with the registry's generation.
func (r *Registry) Ref(id types.ElementID) Ref {
	return Ref{Generation: r.snap.Generation, ID: id}
}

// Get returns the element with identifier id.
func (r *Registry) Get(id types.ElementID) (element.Element, error) {
	e, ok := r.snap.Element(id)
	if !ok {
		return element.Element{}, axerrors.New(axerrors.NotFound, "get element",
			"element %d not found (snapshot has %d elements)", id, r.snap.Len())
	}
	return e, nil
}

// Resolve returns the element ref points at. A ref from another generation is NotFound.
func (r *Registry) Resolve(ref Ref) (element.Element, error) {
	if ref.Generation != r.snap.Generation {
		return element.Element{}, axerrors.New(axerrors.NotFound, "resolve element",
			"element %s belongs to generation %d, registry is at generation %d", ref, ref.Generation, r.snap.Generation)
	}
	return r.Get(ref.ID)
}

// Find returns the first element, in traversal order, that sel matches.
func (r *Registry) Find(sel element.Selector) (element.Element, error) {
	if err := sel.Validate(); err != nil {
		return element.Element{}, axerrors.Wrap(axerrors.Invalid, "find element", err)
	}
	if sel.ID != nil {
		return r.Get(*sel.ID)
	}
	for _, e := range r.snap.Elements {
		if sel.Matches(e) {
			return e, nil
		}
	}
	return element.Element{}, axerrors.New(axerrors.NotFound, "find element", "no element matches %s", sel)
}

// FindAll returns every element sel matches, in traversal order.
func (r *Registry) FindAll(sel element.Selector) ([]element.Element, error) {
	if err := sel.Validate(); err != nil {
		return nil, axerrors.Wrap(axerrors.Invalid, "find elements", err)
	}
	var out []element.Element
	for _, e := range r.snap.Elements {
		if sel.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// At returns the smallest element whose bounding box contains the point.
// Ties go to the deeper element, then to the later one in traversal order.
func (r *Registry) At(x, y int) (element.Element, error) {
	best := -1
	for i, e := range r.snap.Elements {
		if !e.BBox.Contains(x, y) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		cur := r.snap.Elements[best]
		if e.BBox.Area() < cur.BBox.Area() ||
			(e.BBox.Area() == cur.BBox.Area() && e.Depth >= cur.Depth) {
			best = i
		}
	}
	if best < 0 {
		return element.Element{}, axerrors.New(axerrors.NotFound, "element at", "no element at (%d, %d)", x, y)
	}
	return r.snap.Elements[best], nil
}

// Focused returns the first element reporting keyboard focus.
func (r *Registry) Focused() (element.Element, error) {
	for _, e := range r.snap.Elements {
		if e.Focused {
			return e, nil
		}
	}
	return element.Element{}, axerrors.New(axerrors.NotFound, "focused element", "no focused element in %s", r.snap.FocusedApp)
}

// Parent returns the nearest captured ancestor of id.
func (r *Registry) Parent(id types.ElementID) (element.Element, error) {
	e, err := r.Get(id)
	if err != nil {
		return element.Element{}, err
	}
	if e.ParentID == nil {
		return element.Element{}, axerrors.New(axerrors.NotFound, "parent element", "element %d has no captured parent", id)
	}
	return r.Get(*e.ParentID)
}

// Children returns the captured elements whose parent is id.
func (r *Registry) Children(id types.ElementID) ([]element.Element, error) {
	if _, err := r.Get(id); err != nil {
		return nil, err
	}
	var out []element.Element
	for _, e := range r.snap.Elements[id+1:] {
		if e.ParentID != nil && *e.ParentID == id {
			out = append(out, e)
		}
	}
	return out, nil
}
