package completion

import (
	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

// defaultProperties are the configuration keys whose values name entities.
var defaultProperties = []string{
	"badges",
	"devices",
	"entities",
	"entity_id",
	"entity",
	"exclude_entities",
	"include_entities",
	"scene",
	"zone",
	"zones",
}

// PropertySet is an immutable, ordered set of entity-bearing property names.
// Membership is exact and case-sensitive.
type PropertySet struct {
	names  []string
	lookup map[string]struct{}
}

// DefaultProperties returns the built-in property set.
func DefaultProperties() PropertySet {
	set, _ := NewPropertySet(defaultProperties...)
	return set
}

// NewPropertySet builds a set from names, keeping first-seen order.
// It fails on an empty list or an empty name.
func NewPropertySet(names ...string) (PropertySet, error) {
	if len(names) == 0 {
		return PropertySet{}, errs.ErrEmptyPropertySet()
	}

	set := PropertySet{
		names:  make([]string, 0, len(names)),
		lookup: make(map[string]struct{}, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return PropertySet{}, errs.ErrEmptyPropertySet().
				WithMessagef("property name at position %d is empty", i)
		}
		if _, dup := set.lookup[name]; dup {
			continue
		}
		set.lookup[name] = struct{}{}
		set.names = append(set.names, name)
	}
	return set, nil
}

// Contains reports whether name is an entity-bearing property.
func (s PropertySet) Contains(name string) bool {
	_, ok := s.lookup[name]
	return ok
}

// Names returns a copy of the property names in order.
func (s PropertySet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of properties.
func (s PropertySet) Len() int {
	return len(s.names)
}
