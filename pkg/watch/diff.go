package watch

import "github.com/dshills/goax/pkg/domain/element"

// Diff computes the content-keyed delta from prev to next. Elements are matched
// by (role, label, ordinal), never by positional id. A nil prev is the empty
// baseline: every element of next is added.
//
// Added and Changed follow next's traversal order; Removed follows prev's.
func Diff(prev, next *element.Snapshot) element.Delta {
	d := element.Delta{
		Added:   []element.Key{},
		Removed: []element.Key{},
		Changed: []element.Change{},
	}

	prevKeys := element.Keys(prev)
	nextKeys := element.Keys(next)

	before := make(map[element.Key]element.State, len(prevKeys))
	for i, k := range prevKeys {
		before[k] = prev.Elements[i].State()
	}
	after := make(map[element.Key]struct{}, len(nextKeys))

	for i, k := range nextKeys {
		after[k] = struct{}{}
		state := next.Elements[i].State()
		old, ok := before[k]
		switch {
		case !ok:
			d.Added = append(d.Added, k)
		case !old.Equal(state):
			d.Changed = append(d.Changed, element.Change{Key: k, Before: old, After: state})
		}
	}
	for _, k := range prevKeys {
		if _, ok := after[k]; !ok {
			d.Removed = append(d.Removed, k)
		}
	}
	return d
}
