// Package completion implements completion contributions for Home Assistant
// configuration documents.
package completion

import (
	"strconv"
	"strings"
)

// Segment is one step of a Path: either a mapping key or a sequence index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a mapping-key segment.
func Key(name string) Segment {
	return Segment{key: name}
}

// Index returns a sequence-index segment.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

// Name returns the key text, or the decimal form of an index.
func (s Segment) Name() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// IsArrayIndex reports whether the segment addresses a sequence position.
// Key segments whose text is a non-negative integer count as well; the
// segment alone cannot tell a numeric-looking key from a real index.
func (s Segment) IsArrayIndex() bool {
	if s.isIndex {
		return s.index >= 0
	}
	if s.key == "" {
		return false
	}
	_, err := strconv.ParseUint(s.key, 10, 0)
	return err == nil
}

// String implements fmt.Stringer.
func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.key
}

// Path is the ordered list of segments from the document root to the cursor.
type Path []Segment

// Last returns the final segment and false when the path is empty.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// Append returns a new path with seg added, leaving p untouched.
func (p Path) Append(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// String renders the path as "automation[0].trigger.entity_id".
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if i > 0 && !seg.isIndex {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}
