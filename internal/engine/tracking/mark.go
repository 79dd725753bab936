package tracking

import (
	"cmp"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Errors returned by tracker operations.
var (
	ErrMarkNotFound    = errors.New("mark not found")
	ErrAlreadyAttached = errors.New("tracker already attached")
	ErrNotAttached     = errors.New("tracker not attached")
)

// Mark is a named revision checkpoint.
type Mark struct {
	// ID uniquely identifies this mark.
	ID uuid.UUID

	// Name is the human-readable name, such as "before_import".
	Name string

	// Revision is the document version when the mark was set.
	Revision uint64

	// Timestamp when this mark was set.
	Timestamp time.Time
}

// markSet holds marks by name. Setting a name again replaces the mark.
type markSet struct {
	byName map[string]Mark
}

func newMarkSet() *markSet {
	return &markSet{byName: make(map[string]Mark)}
}

func (ms *markSet) set(name string, revision uint64, now time.Time) Mark {
	m := Mark{
		ID:        uuid.New(),
		Name:      name,
		Revision:  revision,
		Timestamp: now,
	}
	ms.byName[name] = m
	return m
}

func (ms *markSet) get(name string) (Mark, bool) {
	m, ok := ms.byName[name]
	return m, ok
}

func (ms *markSet) delete(name string) bool {
	if _, ok := ms.byName[name]; !ok {
		return false
	}
	delete(ms.byName, name)
	return true
}

// list returns the marks ordered by revision, then name.
func (ms *markSet) list() []Mark {
	out := make([]Mark, 0, len(ms.byName))
	for _, m := range ms.byName {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Mark) int {
		if c := cmp.Compare(a.Revision, b.Revision); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func (ms *markSet) clear() {
	ms.byName = make(map[string]Mark)
}
