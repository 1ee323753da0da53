// Package document maps an editor cursor in a Home Assistant YAML document
// to the completion context at that position.
package document

import (
	"errors"
	"io"
	"strings"
	"unicode/utf16"

	"gopkg.in/yaml.v3"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

// cursorMarker is spliced into the text at the cursor before parsing.
const cursorMarker = "__ha_lsp_cursor__"

// Position is a zero-based cursor position. Character counts UTF-16 code
// units, as LSP clients send it.
type Position struct {
	Line      int
	Character int
}

// Kind classifies what the cursor is completing.
type Kind int

const (
	// KindDefault is a position outside any mapping or sequence.
	KindDefault Kind = iota
	// KindProperty is a mapping key or a sequence item.
	KindProperty
	// KindValue is the value of a mapping entry.
	KindValue
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindValue:
		return "value"
	default:
		return "default"
	}
}

// Request describes the completion context at a cursor.
type Request struct {
	Kind        Kind
	Location    completion.Path
	CurrentWord string
	// CurrentKey is set for KindValue.
	CurrentKey string
	// AddValue reports that the key under the cursor has no colon yet.
	AddValue bool
	// IsLast reports that the key under the cursor is the last in its mapping.
	IsLast bool
	// Target is the path of the node under the cursor itself: Location plus
	// the key when the cursor is on a key.
	Target completion.Path
}

// Resolve parses text with the cursor at pos and locates the node under it.
// Positions below the last line resolve to KindDefault; a character past
// the end of its line is clamped.
func Resolve(text string, pos Position) (Request, error) {
	if strings.TrimSpace(text) == "" {
		return Request{Kind: KindDefault}, nil
	}

	offset, ok := byteOffset(text, pos)
	if !ok {
		return Request{Kind: KindDefault}, nil
	}

	before, after := text[:offset], text[offset:]
	lineBefore := before[strings.LastIndexByte(before, '\n')+1:]
	lineAfter := after
	if i := strings.IndexByte(after, '\n'); i >= 0 {
		lineAfter = after[:i]
	}

	sep := ""
	if needsSpace(lineBefore) {
		sep = " "
	}
	plain := before + sep + cursorMarker + after
	asKey := before + sep + cursorMarker + ":" + after

	// A bare word on its own line is most likely a key being typed.
	restBlank := strings.TrimSpace(lineAfter) == ""
	bareWord := restBlank && !strings.Contains(itemText(lineBefore), ":")

	attempts := []attempt{{plain, false}}
	if bareWord {
		attempts = []attempt{{asKey, true}, {plain, false}}
	} else if restBlank {
		attempts = append(attempts, attempt{asKey, true})
	}

	var firstErr error
	for _, a := range attempts {
		req, err := locate(a.text)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		req.AddValue = req.Kind == KindProperty && a.addedKey
		return req, nil
	}
	return Request{}, errs.ErrDocumentParse("", firstErr)
}

type attempt struct {
	text     string
	addedKey bool
}

// needsSpace reports whether the marker would otherwise fuse with a ':' or
// '-' indicator.
func needsSpace(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	return strings.HasSuffix(line, ":") || trimmed == "-" || strings.HasSuffix(line, " -")
}

// itemText strips indentation and sequence indicators from a line prefix.
func itemText(line string) string {
	s := strings.TrimLeft(line, " ")
	for {
		switch {
		case s == "-":
			return ""
		case strings.HasPrefix(s, "- "):
			s = strings.TrimLeft(s[2:], " ")
		default:
			return s
		}
	}
}

// byteOffset converts a line/UTF-16 position into a byte offset into text.
func byteOffset(text string, pos Position) (int, bool) {
	if pos.Line < 0 || pos.Character < 0 {
		return 0, false
	}

	start := 0
	for line := 0; line < pos.Line; line++ {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			return 0, false
		}
		start += i + 1
	}

	end := len(text)
	if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
		end = start + i
	}
	if end > start && text[end-1] == '\r' {
		end--
	}

	units := 0
	for i, r := range text[start:end] {
		if units >= pos.Character {
			return start + i, true
		}
		if n := utf16.RuneLen(r); n > 0 {
			units += n
		} else {
			units++
		}
	}
	return end, true
}

// locate parses every document in text and returns the request for the
// scalar holding the cursor marker.
func locate(text string) (Request, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return Request{Kind: KindDefault}, nil
			}
			return Request{}, err
		}

		root := &doc
		if root.Kind == yaml.DocumentNode {
			if len(root.Content) == 0 {
				continue
			}
			root = root.Content[0]
		}
		if root.Kind == yaml.ScalarNode {
			if word, ok := wordBefore(root); ok {
				return Request{Kind: KindDefault, CurrentWord: word}, nil
			}
			continue
		}
		if req, ok := walk(root, nil); ok {
			return req, nil
		}
	}
}

func walk(node *yaml.Node, path completion.Path) (Request, bool) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				continue
			}
			if word, ok := wordBefore(key); ok {
				name := strings.Replace(key.Value, cursorMarker, "", 1)
				return Request{
					Kind:        KindProperty,
					Location:    path,
					CurrentWord: word,
					IsLast:      i+2 >= len(node.Content),
					Target:      path.Append(completion.Key(name)),
				}, true
			}
			name := key.Value
			if val.Kind == yaml.ScalarNode {
				if word, ok := wordBefore(val); ok {
					loc := path.Append(completion.Key(name))
					return Request{
						Kind:        KindValue,
						Location:    loc,
						CurrentWord: word,
						CurrentKey:  name,
						Target:      loc,
					}, true
				}
				continue
			}
			if req, ok := walk(val, path.Append(completion.Key(name))); ok {
				return req, true
			}
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				if word, ok := wordBefore(item); ok {
					loc := path.Append(completion.Index(i))
					return Request{
						Kind:        KindProperty,
						Location:    loc,
						CurrentWord: word,
						Target:      loc,
					}, true
				}
				continue
			}
			if req, ok := walk(item, path.Append(completion.Index(i))); ok {
				return req, true
			}
		}
	}
	return Request{}, false
}

// wordBefore returns the scalar text preceding the marker.
func wordBefore(n *yaml.Node) (string, bool) {
	i := strings.Index(n.Value, cursorMarker)
	if i < 0 {
		return "", false
	}
	return n.Value[:i], true
}
