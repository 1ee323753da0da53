package completion

import (
	"context"
	"sync"
)

// Kind hints how an editor should present a candidate.
type Kind int

const (
	KindText Kind = iota
	KindVariable
	KindProperty
	KindValue
)

// Candidate is a single completion suggestion.
type Candidate struct {
	Label         string
	Kind          Kind
	Detail        string
	Documentation string // markdown
	FilterText    string
	InsertText    string
}

// Collector receives candidates for one completion request.
type Collector interface {
	Add(c Candidate)
}

// List is a Collector that keeps candidates in insertion order.
type List struct {
	mu    sync.Mutex
	items []Candidate
}

// Add implements Collector.
func (l *List) Add(c Candidate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, c)
}

// Items returns a copy of the collected candidates.
func (l *List) Items() []Candidate {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Candidate, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of collected candidates.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// EntitySource supplies the currently known entity completions.
type EntitySource interface {
	EntityCompletions(ctx context.Context) ([]Candidate, error)
}

// SourceFunc adapts a function to EntitySource.
type SourceFunc func(ctx context.Context) ([]Candidate, error)

// EntityCompletions implements EntitySource.
func (f SourceFunc) EntityCompletions(ctx context.Context) ([]Candidate, error) {
	return f(ctx)
}
