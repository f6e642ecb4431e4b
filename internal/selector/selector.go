package selector

import (
	"errors"
	"fmt"
)

// ErrUnknownOption is returned by Select for a key that is not an option.
var ErrUnknownOption = errors.New("unknown option")

// Selector is an ordered option set with a current selection.
// The zero value is not usable; call New.
type Selector struct {
	placeholder string
	options     []Entity
	selected    string
}

// New creates a Selector holding only the sentinel option, labelled placeholder.
func New(placeholder string) *Selector {
	return &Selector{
		placeholder: placeholder,
		options:     []Entity{{Key: None, Label: placeholder}},
	}
}

// Keys returns the option keys in display order, sentinel first.
func (s *Selector) Keys() []string {
	keys := make([]string, len(s.options))
	for i, o := range s.options {
		keys[i] = o.Key
	}
	return keys
}

// Options returns a copy of the options in display order, sentinel first.
func (s *Selector) Options() []Entity {
	out := make([]Entity, len(s.options))
	copy(out, s.options)
	return out
}

// Len returns the number of real options (the sentinel is not counted).
func (s *Selector) Len() int {
	return len(s.options) - 1
}

// Selected returns the selected key, or None.
func (s *Selector) Selected() string {
	return s.selected
}

// Label returns the label of key, if key is an option.
func (s *Selector) Label(key string) (string, bool) {
	i := s.index(key)
	if i < 0 {
		return "", false
	}
	return s.options[i].Label, true
}

// Has reports whether key is an option.
func (s *Selector) Has(key string) bool {
	return s.index(key) >= 0
}

// Select makes key the current selection. None clears it.
func (s *Selector) Select(key string) error {
	if key != None && s.index(key) < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownOption, key)
	}
	s.selected = key
	return nil
}

// Apply performs c on the option set: removals first, then additions.
func (s *Selector) Apply(c Change) {
	if len(c.Remove) > 0 {
		drop := make(map[string]struct{}, len(c.Remove))
		for _, k := range c.Remove {
			if k != None {
				drop[k] = struct{}{}
			}
		}
		kept := s.options[:0]
		for _, o := range s.options {
			if _, gone := drop[o.Key]; gone {
				continue
			}
			kept = append(kept, o)
		}
		s.options = kept
		if _, gone := drop[s.selected]; gone {
			s.selected = None
		}
	}

	for _, e := range c.Add {
		if e.Key == None || s.index(e.Key) >= 0 {
			continue
		}
		s.options = append(s.options, e)
	}

	if c.SelectionInvalidated {
		s.selected = None
	}
	s.ensureSentinel()
}

// Sync reconciles the option set against authoritative and applies the result.
func (s *Selector) Sync(authoritative []Entity) Change {
	c := Reconcile(s.Keys(), s.selected, authoritative)
	s.Apply(c)
	return c
}

// Reset drops every option but the sentinel and clears the selection.
func (s *Selector) Reset() {
	s.options = s.options[:0]
	s.selected = None
	s.ensureSentinel()
}

func (s *Selector) index(key string) int {
	for i, o := range s.options {
		if o.Key == key {
			return i
		}
	}
	return -1
}

func (s *Selector) ensureSentinel() {
	if len(s.options) > 0 && s.options[0].Key == None {
		return
	}
	for i, o := range s.options {
		if o.Key == None {
			s.options = append(s.options[:i], s.options[i+1:]...)
			break
		}
	}
	s.options = append([]Entity{{Key: None, Label: s.placeholder}}, s.options...)
}
