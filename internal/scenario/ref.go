package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/livetree/internal/engine/model"
)

// Ref names a position as "root[0 1 2]".
type Ref struct {
	Root string
	Path []int
}

// ParseRef reads a position reference.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	fields := strings.Fields(s[open+1 : len(s)-1])
	if len(fields) == 0 {
		return Ref{}, fmt.Errorf("%w: %q has an empty path", ErrInvalidRef, s)
	}
	path := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return Ref{}, fmt.Errorf("%w: %q entry %q", ErrInvalidRef, s, f)
		}
		path[i] = n
	}
	return Ref{Root: s[:open], Path: path}, nil
}

// String returns the reference in the form ParseRef reads.
func (r Ref) String() string {
	parts := make([]string, len(r.Path))
	for i, v := range r.Path {
		parts[i] = strconv.Itoa(v)
	}
	return r.Root + "[" + strings.Join(parts, " ") + "]"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseRef(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Ref) MarshalYAML() (any, error) {
	return r.String(), nil
}

// resolve finds the position in doc.
func (r Ref) resolve(doc *model.Document) (model.Position, error) {
	root, ok := doc.Root(r.Root)
	if !ok {
		return model.Position{}, fmt.Errorf("%s: %w", r, model.ErrNotInDocument)
	}
	return model.NewPosition(root, r.Path)
}

// RangeRef is either "start..end" or "@root", the range marked in the
// initial markup of root.
type RangeRef struct {
	Start, End Ref
	Marked     string
}

// ParseRangeRef reads a range reference.
func ParseRangeRef(s string) (RangeRef, error) {
	s = strings.TrimSpace(s)
	if name, ok := strings.CutPrefix(s, "@"); ok {
		if name == "" {
			return RangeRef{}, fmt.Errorf("%w: %q names no root", ErrInvalidRef, s)
		}
		return RangeRef{Marked: name}, nil
	}
	a, b, ok := strings.Cut(s, "..")
	if !ok {
		return RangeRef{}, fmt.Errorf("%w: %q is not start..end", ErrInvalidRef, s)
	}
	start, err := ParseRef(a)
	if err != nil {
		return RangeRef{}, err
	}
	end, err := ParseRef(b)
	if err != nil {
		return RangeRef{}, err
	}
	return RangeRef{Start: start, End: end}, nil
}

// String returns the reference in the form ParseRangeRef reads.
func (r RangeRef) String() string {
	if r.Marked != "" {
		return "@" + r.Marked
	}
	return r.Start.String() + ".." + r.End.String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RangeRef) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseRangeRef(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r RangeRef) MarshalYAML() (any, error) {
	return r.String(), nil
}
