package completion

import "context"

// Contribution is the set of hooks a completion host calls while the user
// edits a document. Implementations add candidates to result and return
// without effect when a position does not apply to them.
type Contribution interface {
	CollectDefaultCompletions(ctx context.Context, resource string, result Collector) error
	CollectPropertyCompletions(ctx context.Context, resource string, location Path, currentWord string, addValue, isLast bool, result Collector) error
	CollectValueCompletions(ctx context.Context, resource string, location Path, currentKey string, result Collector) error
	InfoContribution(ctx context.Context, resource string, location Path) ([]string, error)
}

// EntityIDs offers entity identifiers wherever the configuration expects one.
type EntityIDs struct {
	source     EntitySource
	properties PropertySet
}

var _ Contribution = (*EntityIDs)(nil)

// Option configures EntityIDs.
type Option func(*EntityIDs)

// WithProperties replaces the default property set.
func WithProperties(set PropertySet) Option {
	return func(e *EntityIDs) {
		if set.Len() > 0 {
			e.properties = set
		}
	}
}

// NewEntityIDs creates the contribution backed by source.
func NewEntityIDs(source EntitySource, opts ...Option) *EntityIDs {
	e := &EntityIDs{
		source:     source,
		properties: DefaultProperties(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Properties returns the property set in use.
func (e *EntityIDs) Properties() PropertySet {
	return e.properties
}

// CollectDefaultCompletions offers nothing.
func (e *EntityIDs) CollectDefaultCompletions(_ context.Context, _ string, _ Collector) error {
	return nil
}

// CollectPropertyCompletions adds entity ids when the last location segment
// is an entity-bearing property, or an index into one.
func (e *EntityIDs) CollectPropertyCompletions(ctx context.Context, _ string, location Path, _ string, _, _ bool, result Collector) error {
	if len(location) < 2 {
		return nil
	}

	// inside a list the last segment is the item index, so the list's own
	// key sits one level up
	current := location[len(location)-1]
	parent := location[len(location)-2]

	if !e.properties.Contains(current.Name()) &&
		!(current.IsArrayIndex() && e.properties.Contains(parent.Name())) {
		return nil
	}
	return e.forward(ctx, result)
}

// CollectValueCompletions adds entity ids when currentKey is an
// entity-bearing property.
func (e *EntityIDs) CollectValueCompletions(ctx context.Context, _ string, _ Path, currentKey string, result Collector) error {
	if !e.properties.Contains(currentKey) {
		return nil
	}
	return e.forward(ctx, result)
}

// InfoContribution offers no hover text.
func (e *EntityIDs) InfoContribution(_ context.Context, _ string, _ Path) ([]string, error) {
	return []string{}, nil
}

func (e *EntityIDs) forward(ctx context.Context, result Collector) error {
	candidates, err := e.source.EntityCompletions(ctx)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		result.Add(c)
	}
	return nil
}
