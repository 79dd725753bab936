package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Scenario is a document setup, a list of edits and expectations.
type Scenario struct {
	Name   string              `yaml:"name"`
	Roots  []RootSpec          `yaml:"roots"`
	Ranges map[string]RangeRef `yaml:"ranges"`
	Steps  []Step              `yaml:"steps"`
	Expect *Expectation        `yaml:"expect"`

	// File is the path the scenario was loaded from, if any.
	File string `yaml:"-"`
}

// RootSpec creates a root and fills it with markup.
type RootSpec struct {
	Name   string `yaml:"name"`
	Markup string `yaml:"markup"`
}

// Step is one action, optionally followed by expectations. Exactly one of
// Insert, Remove, Move and Detach is set.
type Step struct {
	Insert *InsertStep `yaml:"insert"`
	Remove *RemoveStep `yaml:"remove"`
	Move   *MoveStep   `yaml:"move"`
	Detach string      `yaml:"detach"`

	// Error, when set, is a substring the operation's error must contain.
	Error string `yaml:"error"`

	Expect *Expectation `yaml:"expect"`
}

// InsertStep inserts markup at a position.
type InsertStep struct {
	At     Ref    `yaml:"at"`
	Markup string `yaml:"markup"`
}

// RemoveStep removes count offset units.
type RemoveStep struct {
	At    Ref `yaml:"at"`
	Count int `yaml:"count"`
}

// MoveStep moves count offset units from From to To. To is given in the
// tree before the move.
type MoveStep struct {
	From  Ref `yaml:"from"`
	Count int `yaml:"count"`
	To    Ref `yaml:"to"`
}

// Expectation lists what must hold after a step or at the end.
type Expectation struct {
	Ranges   map[string]RangeRef `yaml:"ranges"`
	Markup   map[string]string   `yaml:"markup"`
	Detached []string            `yaml:"detached"`
	Version  *uint64             `yaml:"version"`
	Changes  *int                `yaml:"changes"`
}

func (s Step) action() string {
	switch {
	case s.Insert != nil:
		return "insert"
	case s.Remove != nil:
		return "remove"
	case s.Move != nil:
		return "move"
	case s.Detach != "":
		return "detach"
	default:
		return ""
	}
}

func (s Step) actionCount() int {
	n := 0
	if s.Insert != nil {
		n++
	}
	if s.Remove != nil {
		n++
	}
	if s.Move != nil {
		n++
	}
	if s.Detach != "" {
		n++
	}
	return n
}

// Parse decodes a scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and decodes a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.File = path
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Validate checks the structure without building a document.
func (s *Scenario) Validate() error {
	var err error
	if len(s.Roots) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: no roots", ErrInvalidScenario))
	}
	seen := make(map[string]bool, len(s.Roots))
	for i, r := range s.Roots {
		if r.Name == "" {
			err = multierr.Append(err, fmt.Errorf("%w: root %d has no name", ErrInvalidScenario, i+1))
		}
		if seen[r.Name] {
			err = multierr.Append(err, fmt.Errorf("%w: root %q declared twice", ErrInvalidScenario, r.Name))
		}
		seen[r.Name] = true
	}
	for name, ref := range s.Ranges {
		if ref.Marked != "" && !seen[ref.Marked] {
			err = multierr.Append(err, fmt.Errorf("%w: range %s marks unknown root %q", ErrInvalidScenario, name, ref.Marked))
		}
	}
	for i, step := range s.Steps {
		if n := step.actionCount(); n != 1 {
			err = multierr.Append(err, fmt.Errorf("%w: step %d has %d actions, want 1", ErrInvalidScenario, i+1, n))
		}
		if step.Detach != "" {
			if _, ok := s.Ranges[step.Detach]; !ok {
				err = multierr.Append(err, fmt.Errorf("%w: step %d detaches %q", ErrUnknownRange, i+1, step.Detach))
			}
		}
	}
	return err
}
