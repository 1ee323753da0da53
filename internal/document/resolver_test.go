package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

const automation = `automation:
  - alias: Porch light
    trigger:
      - platform: state
        entity_id:
          -
`

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		pos  Position
		want Request
	}{
		{
			name: "empty document",
			text: "",
			pos:  Position{0, 0},
			want: Request{Kind: KindDefault},
		},
		{
			name: "whitespace only",
			text: "\n  \n",
			pos:  Position{1, 2},
			want: Request{Kind: KindDefault},
		},
		{
			name: "value after colon and space",
			text: "entity_id: ",
			pos:  Position{0, 11},
			want: Request{
				Kind:       KindValue,
				Location:   completion.Path{completion.Key("entity_id")},
				CurrentKey: "entity_id",
				Target:     completion.Path{completion.Key("entity_id")},
			},
		},
		{
			name: "value directly after colon",
			text: "entity_id:",
			pos:  Position{0, 10},
			want: Request{
				Kind:       KindValue,
				Location:   completion.Path{completion.Key("entity_id")},
				CurrentKey: "entity_id",
				Target:     completion.Path{completion.Key("entity_id")},
			},
		},
		{
			name: "partial value",
			text: "zone: zone.ho",
			pos:  Position{0, 13},
			want: Request{
				Kind:        KindValue,
				Location:    completion.Path{completion.Key("zone")},
				CurrentKey:  "zone",
				CurrentWord: "zone.ho",
				Target:      completion.Path{completion.Key("zone")},
			},
		},
		{
			name: "empty sequence item in nested automation",
			text: automation,
			pos:  Position{5, 11},
			want: Request{
				Kind: KindProperty,
				Location: completion.Path{
					completion.Key("automation"), completion.Index(0),
					completion.Key("trigger"), completion.Index(0),
					completion.Key("entity_id"), completion.Index(0),
				},
				AddValue: true,
				IsLast:   true,
				Target: completion.Path{
					completion.Key("automation"), completion.Index(0),
					completion.Key("trigger"), completion.Index(0),
					completion.Key("entity_id"), completion.Index(0),
					completion.Key(""),
				},
			},
		},
		{
			name: "dash without trailing space",
			text: "entities:\n  -",
			pos:  Position{1, 3},
			want: Request{
				Kind:     KindProperty,
				Location: completion.Path{completion.Key("entities"), completion.Index(0)},
				AddValue: true,
				IsLast:   true,
				Target:   completion.Path{completion.Key("entities"), completion.Index(0), completion.Key("")},
			},
		},
		{
			name: "cursor inside existing sequence item",
			text: "entity_id:\n  - light.kitchen\n",
			pos:  Position{1, 11},
			want: Request{
				Kind:        KindProperty,
				Location:    completion.Path{completion.Key("entity_id"), completion.Index(0)},
				CurrentWord: "light.k",
				Target:      completion.Path{completion.Key("entity_id"), completion.Index(0)},
			},
		},
		{
			name: "second sequence item",
			text: "entity_id:\n  - light.kitchen\n  - ",
			pos:  Position{2, 4},
			want: Request{
				Kind:     KindProperty,
				Location: completion.Path{completion.Key("entity_id"), completion.Index(1)},
				AddValue: true,
				IsLast:   true,
				Target:   completion.Path{completion.Key("entity_id"), completion.Index(1), completion.Key("")},
			},
		},
		{
			name: "flow sequence item",
			text: "entity_id: [light.a, ]",
			pos:  Position{0, 21},
			want: Request{
				Kind:     KindProperty,
				Location: completion.Path{completion.Key("entity_id"), completion.Index(1)},
				Target:   completion.Path{completion.Key("entity_id"), completion.Index(1)},
			},
		},
		{
			name: "half typed key",
			text: "trigger:\n  platform: state\n  entit",
			pos:  Position{2, 7},
			want: Request{
				Kind:        KindProperty,
				Location:    completion.Path{completion.Key("trigger")},
				CurrentWord: "entit",
				AddValue:    true,
				IsLast:      true,
				Target:      completion.Path{completion.Key("trigger"), completion.Key("entit")},
			},
		},
		{
			name: "half typed key before sibling",
			text: "light:\n  b\n  c: 1\n",
			pos:  Position{1, 3},
			want: Request{
				Kind:        KindProperty,
				Location:    completion.Path{completion.Key("light")},
				CurrentWord: "b",
				AddValue:    true,
				Target:      completion.Path{completion.Key("light"), completion.Key("b")},
			},
		},
		{
			name: "inside existing key",
			text: "entity_id: light.a",
			pos:  Position{0, 5},
			want: Request{
				Kind:        KindProperty,
				Location:    nil,
				CurrentWord: "entit",
				IsLast:      true,
				Target:      completion.Path{completion.Key("entity_id")},
			},
		},
		{
			name: "value inside sequence item mapping",
			text: "entities:\n  - entity: light.k",
			pos:  Position{1, 19},
			want: Request{
				Kind: KindValue,
				Location: completion.Path{
					completion.Key("entities"), completion.Index(0), completion.Key("entity"),
				},
				CurrentKey:  "entity",
				CurrentWord: "light.k",
				Target: completion.Path{
					completion.Key("entities"), completion.Index(0), completion.Key("entity"),
				},
			},
		},
		{
			name: "root scalar",
			text: "hello world",
			pos:  Position{0, 5},
			want: Request{Kind: KindDefault, CurrentWord: "hello"},
		},
		{
			name: "line past end",
			text: "zone: zone.home",
			pos:  Position{4, 0},
			want: Request{Kind: KindDefault},
		},
		{
			name: "character past end of line is clamped",
			text: "zone: zone.ho\nscene: x",
			pos:  Position{0, 80},
			want: Request{
				Kind:        KindValue,
				Location:    completion.Path{completion.Key("zone")},
				CurrentKey:  "zone",
				CurrentWord: "zone.ho",
				Target:      completion.Path{completion.Key("zone")},
			},
		},
		{
			name: "utf-16 columns",
			text: "name: \U0001F600li",
			pos:  Position{0, 9},
			want: Request{
				Kind:        KindValue,
				Location:    completion.Path{completion.Key("name")},
				CurrentKey:  "name",
				CurrentWord: "\U0001F600l",
				Target:      completion.Path{completion.Key("name")},
			},
		},
		{
			name: "crlf line endings",
			text: "scene:\r\n  - scene.a\r\n",
			pos:  Position{1, 9},
			want: Request{
				Kind:        KindProperty,
				Location:    completion.Path{completion.Key("scene"), completion.Index(0)},
				CurrentWord: "scene",
				Target:      completion.Path{completion.Key("scene"), completion.Index(0)},
			},
		},
		{
			name: "second document",
			text: "a: 1\n---\nzone: ",
			pos:  Position{2, 6},
			want: Request{
				Kind:       KindValue,
				Location:   completion.Path{completion.Key("zone")},
				CurrentKey: "zone",
				Target:     completion.Path{completion.Key("zone")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Resolve(tt.text, tt.pos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_ParseError(t *testing.T) {
	t.Parallel()

	_, err := Resolve("a: [\nb: 1", Position{1, 1})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeDocument))
	assert.Equal(t, errs.CodeDocumentParse, errs.GetCode(err))
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "default", KindDefault.String())
	assert.Equal(t, "property", KindProperty.String())
	assert.Equal(t, "value", KindValue.String())
}

func TestItemText(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                "",
		"    entit":       "entit",
		"  - ":            "",
		"  -":             "",
		"  - - x":         "x",
		"  - platform: s": "platform: s",
	}
	for in, want := range tests {
		assert.Equal(t, want, itemText(in), in)
	}
}
