package langserver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/document"
)

// recorder is a contribution that records which hook ran and adds a fixed label.
type recorder struct {
	mu    sync.Mutex
	calls []string
	label string
	info  []string
	err   error
	panic bool
}

func (r *recorder) record(hook string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, hook)
}

func (r *recorder) hooks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) add(result completion.Collector) error {
	if r.panic {
		panic("contribution exploded")
	}
	if r.err != nil {
		return r.err
	}
	if r.label != "" {
		result.Add(completion.Candidate{Label: r.label})
	}
	return nil
}

func (r *recorder) CollectDefaultCompletions(_ context.Context, _ string, result completion.Collector) error {
	r.record("default")
	return r.add(result)
}

func (r *recorder) CollectPropertyCompletions(_ context.Context, _ string, location completion.Path, _ string, _, _ bool, result completion.Collector) error {
	r.record("property " + location.String())
	return r.add(result)
}

func (r *recorder) CollectValueCompletions(_ context.Context, _ string, _ completion.Path, currentKey string, result completion.Collector) error {
	r.record("value " + currentKey)
	return r.add(result)
}

func (r *recorder) InfoContribution(_ context.Context, _ string, location completion.Path) ([]string, error) {
	r.record("info " + location.String())
	return r.info, r.err
}

func entitySource() completion.EntitySource {
	return completion.SourceFunc(func(context.Context) ([]completion.Candidate, error) {
		return []completion.Candidate{
			{Label: "light.kitchen", Kind: completion.KindVariable},
			{Label: "light.living_room", Kind: completion.KindVariable},
		}, nil
	})
}

func labels(cs []completion.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Label
	}
	return out
}

func TestService_Complete_EntityIDs(t *testing.T) {
	t.Parallel()

	svc := NewService(zaptest.NewLogger(t).Sugar(), completion.NewEntityIDs(entitySource()))

	tests := []struct {
		name string
		text string
		pos  document.Position
		want []string
	}{
		{"value of entity_id", "entity_id: ", document.Position{Line: 0, Character: 11}, []string{"light.kitchen", "light.living_room"}},
		{"item under entities", "entities:\n  - ", document.Position{Line: 1, Character: 4}, []string{"light.kitchen", "light.living_room"}},
		{"nested trigger list", "trigger:\n  - platform: state\n    entity_id:\n      - ", document.Position{Line: 3, Character: 8}, []string{"light.kitchen", "light.living_room"}},
		{"unrelated value", "brightness: ", document.Position{Line: 0, Character: 12}, []string{}},
		{"root key", "ent", document.Position{Line: 0, Character: 3}, []string{}},
		{"empty document", "", document.Position{}, []string{}},
		{"unparsable", "a: [\nb", document.Position{Line: 1, Character: 0}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := svc.Complete(context.Background(), "file:///config/configuration.yaml", tt.text, tt.pos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, labels(got))
		})
	}
}

func TestService_Complete_DispatchesByKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		pos  document.Position
		want string
	}{
		{"default", "", document.Position{}, "default"},
		{"property", "automation:\n  al", document.Position{Line: 1, Character: 4}, "property automation"},
		{"value", "zone: ", document.Position{Line: 0, Character: 6}, "value zone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &recorder{}
			_, err := NewService(nil, rec).Complete(context.Background(), "", tt.text, tt.pos)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, rec.hooks())
		})
	}
}

func TestService_Complete_SharedResultInOrder(t *testing.T) {
	t.Parallel()

	first := &recorder{label: "first"}
	second := &recorder{label: "second"}
	svc := NewService(nil, first, completion.NewEntityIDs(entitySource()), second)

	got, err := svc.Complete(context.Background(), "", "entity_id: ", document.Position{Line: 0, Character: 11})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "light.kitchen", "light.living_room", "second"}, labels(got))
}

func TestService_Complete_FirstErrorAborts(t *testing.T) {
	t.Parallel()

	sourceErr := errors.New("connection reset")
	failing := completion.NewEntityIDs(completion.SourceFunc(func(context.Context) ([]completion.Candidate, error) {
		return nil, sourceErr
	}))
	after := &recorder{label: "after"}

	_, err := NewService(nil, failing, after).Complete(context.Background(), "", "zone: ", document.Position{Line: 0, Character: 6})
	assert.ErrorIs(t, err, sourceErr)
	assert.Empty(t, after.hooks())
}

func TestService_Hover(t *testing.T) {
	t.Parallel()

	rec := &recorder{info: []string{"Entity to watch"}}
	svc := NewService(nil, completion.NewEntityIDs(entitySource()), rec)

	info, err := svc.Hover(context.Background(), "", "trigger:\n  entity_id: light.a", document.Position{Line: 1, Character: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"Entity to watch"}, info)
	assert.Equal(t, []string{"info trigger.entity_id"}, rec.hooks())
}

func TestService_Hover_NothingToSay(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, completion.NewEntityIDs(entitySource()))

	info, err := svc.Hover(context.Background(), "", "entity_id: light.a", document.Position{Line: 0, Character: 3})
	require.NoError(t, err)
	assert.NotNil(t, info)
	assert.Empty(t, info)

	info, err = svc.Hover(context.Background(), "", "just text", document.Position{Line: 0, Character: 2})
	require.NoError(t, err)
	assert.Empty(t, info)
}
