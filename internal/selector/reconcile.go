package selector

// None is the sentinel key meaning "nothing selected".
const None = ""

// Entity is a selectable item: a unique key plus a display label.
type Entity struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Change is the edit needed to make an option set match an authoritative list.
type Change struct {
	// Remove lists keys to drop, the invalidated selection first.
	Remove []string `json:"remove,omitempty"`
	// Add lists entities to append, in authoritative order.
	Add []Entity `json:"add,omitempty"`
	// SelectionInvalidated is set when the selected key is gone.
	SelectionInvalidated bool `json:"selection_invalidated"`
	// HideDependents is set when the next-level selector and the
	// measurement panels must be hidden.
	HideDependents bool `json:"hide_dependents"`
}

// Empty reports whether the change edits nothing.
func (c Change) Empty() bool {
	return len(c.Remove) == 0 && len(c.Add) == 0 && !c.SelectionInvalidated
}

// Reconcile computes the edit that turns current into {None} ∪ keys(authoritative).
//
// The selection is checked first: if it is not None and no authoritative
// entity carries it, it is marked invalidated and removed. Then every other
// stale key is removed, and finally every authoritative key not already
// present is added. Removals are decided before additions, so a key that is
// both selected and still authoritative is left alone.
func Reconcile(current []string, selection string, authoritative []Entity) Change {
	fresh := make(map[string]struct{}, len(authoritative))
	for _, e := range authoritative {
		fresh[e.Key] = struct{}{}
	}

	var change Change
	removed := make(map[string]struct{})

	if selection != None {
		if _, ok := fresh[selection]; !ok {
			change.SelectionInvalidated = true
			change.Remove = append(change.Remove, selection)
			removed[selection] = struct{}{}
		}
	}

	present := make(map[string]struct{}, len(current))
	for _, key := range current {
		present[key] = struct{}{}
		if key == None {
			continue
		}
		if _, ok := fresh[key]; ok {
			continue
		}
		if _, done := removed[key]; done {
			continue
		}
		change.Remove = append(change.Remove, key)
		removed[key] = struct{}{}
	}

	for _, e := range authoritative {
		if e.Key == None {
			continue
		}
		if _, ok := present[e.Key]; ok {
			continue
		}
		change.Add = append(change.Add, e)
		present[e.Key] = struct{}{}
	}

	change.HideDependents = change.SelectionInvalidated || len(authoritative) == 0
	return change
}
