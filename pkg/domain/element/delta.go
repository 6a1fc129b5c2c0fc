package element

import "fmt"

// Key is an element's content identity across snapshots. Positional ids are not
// stable between captures, so deltas key on (role, label); Ordinal tells apart
// repeated (role, label) pairs by their order of appearance.
type Key struct {
	Role    Role   `json:"role"`
	Label   string `json:"label"`
	Ordinal int    `json:"ordinal"`
}

// String renders the key as role "label"#ordinal.
func (k Key) String() string {
	if k.Ordinal == 0 {
		return fmt.Sprintf("%s %q", k.Role, k.Label)
	}
	return fmt.Sprintf("%s %q#%d", k.Role, k.Label, k.Ordinal)
}

// Change records a key present in both snapshots whose state differs.
type Change struct {
	Key    Key   `json:"key"`
	Before State `json:"before"`
	After  State `json:"after"`
}

// Delta is the content-keyed difference between two snapshots.
type Delta struct {
	Added   []Key    `json:"added"`
	Removed []Key    `json:"removed"`
	Changed []Change `json:"changed"`
}

// IsEmpty reports whether nothing was added, removed, or changed.
func (d Delta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Keys assigns content keys to every element of s, in traversal order.
func Keys(s *Snapshot) []Key {
	if s == nil {
		return nil
	}
	seen := make(map[[2]string]int, len(s.Elements))
	keys := make([]Key, len(s.Elements))
	for i, e := range s.Elements {
		pair := [2]string{string(e.Role), e.Label}
		keys[i] = Key{Role: e.Role, Label: e.Label, Ordinal: seen[pair]}
		seen[pair]++
	}
	return keys
}
