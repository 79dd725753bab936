package scenario

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dshills/livetree/internal/engine/liverange"
	"github.com/dshills/livetree/internal/engine/model"
	"github.com/dshills/livetree/internal/engine/notation"
	"github.com/dshills/livetree/internal/engine/tracking"
)

// RunOption configures a run.
type RunOption func(*runConfig)

type runConfig struct {
	logger      *zap.Logger
	journalSize int
}

// WithLogger sets the logger for the document, ranges and runner.
func WithLogger(logger *zap.Logger) RunOption {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithJournalSize sets the change journal capacity. Zero or less runs
// without a journal; "changes" expectations then fail.
func WithJournalSize(n int) RunOption {
	return func(c *runConfig) {
		c.journalSize = max(n, 0)
	}
}

// Report is the outcome of a run.
type Report struct {
	Name     string            `yaml:"name"`
	File     string            `yaml:"file,omitempty"`
	Passed   bool              `yaml:"passed"`
	Steps    int               `yaml:"steps"`
	Version  uint64            `yaml:"version"`
	Ranges   map[string]string `yaml:"ranges,omitempty"`
	Markup   map[string]string `yaml:"markup,omitempty"`
	Journal  string            `yaml:"journal,omitempty"`
	Failures []string          `yaml:"failures,omitempty"`

	err error
}

// Err returns the failures combined into one error, or nil.
func (r *Report) Err() error {
	return r.err
}

// YAML renders the report.
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

func (r *Report) fail(err error) {
	r.err = multierr.Append(r.err, err)
}

// runner holds the state of one run.
type runner struct {
	s       *Scenario
	doc     *model.Document
	journal *tracking.Tracker // nil when journaling is off
	base    uint64            // journal revision after setup
	ranges  map[string]*liverange.LiveRange
	marked  map[string]*model.Range
	logger  *zap.Logger
}

// Run builds the document, applies the steps and checks expectations.
// Unmet expectations and unexpected operation errors end up in the
// report; the returned error covers scenarios that cannot be set up.
func (s *Scenario) Run(opts ...RunOption) (*Report, error) {
	cfg := runConfig{logger: zap.NewNop(), journalSize: tracking.DefaultMaxChanges}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	r := &runner{
		s:      s,
		doc:    model.NewDocument(model.WithLogger(cfg.logger.Named("document"))),
		ranges: make(map[string]*liverange.LiveRange),
		marked: make(map[string]*model.Range),
		logger: cfg.logger.With(zap.String("scenario", s.Name)),
	}
	if cfg.journalSize > 0 {
		r.journal = tracking.NewTracker(
			tracking.WithMaxChanges(cfg.journalSize),
			tracking.WithLogger(cfg.logger.Named("journal")),
		)
	}
	defer r.close()

	if err := r.setup(cfg.logger); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}

	report := &Report{Name: s.Name, File: s.File}
	for i, step := range s.Steps {
		n := i + 1
		if err := r.apply(step); err != nil {
			if step.Error == "" || !strings.Contains(err.Error(), step.Error) {
				report.fail(&StepError{Step: n, Err: err})
			}
		} else if step.Error != "" {
			report.fail(&StepError{Step: n, Err: fmt.Errorf("%s succeeded, want error containing %q", step.action(), step.Error)})
		}
		report.Steps = n
		if step.Expect != nil {
			report.fail(r.check(n, step.Expect))
		}
	}
	if s.Expect != nil {
		report.fail(r.check(0, s.Expect))
	}

	r.fillReport(report)
	if report.err != nil {
		r.logger.Warn("scenario failed", zap.Int("failures", len(report.Failures)))
	} else {
		r.logger.Debug("scenario passed", zap.Int("steps", report.Steps))
	}
	return report, nil
}

func (r *runner) setup(logger *zap.Logger) error {
	if r.journal != nil {
		if err := r.journal.Attach(r.doc); err != nil {
			return err
		}
	}
	for _, def := range r.s.Roots {
		root, err := r.doc.CreateRoot(def.Name)
		if err != nil {
			return err
		}
		if def.Markup == "" {
			continue
		}
		at, err := model.NewPosition(root, []int{0})
		if err != nil {
			return err
		}
		rng, err := notation.Load(r.doc, at, def.Markup)
		if err != nil {
			return fmt.Errorf("root %s: %w", def.Name, err)
		}
		r.marked[def.Name] = rng
	}

	for _, name := range sortedKeys(r.s.Ranges) {
		rng, err := r.resolveRange(r.s.Ranges[name])
		if err != nil {
			return fmt.Errorf("range %s: %w", name, err)
		}
		lr, err := liverange.FromRange(rng,
			liverange.WithName(name),
			liverange.WithLogger(logger.Named("liverange")),
		)
		if err != nil {
			return fmt.Errorf("range %s: %w", name, err)
		}
		r.ranges[name] = lr
	}
	// Journal revisions start after the setup inserts.
	if r.journal != nil {
		r.journal.Clear()
		r.base = r.journal.Revision()
	}
	return nil
}

func (r *runner) resolveRange(ref RangeRef) (model.Range, error) {
	if ref.Marked != "" {
		rng := r.marked[ref.Marked]
		if rng == nil {
			return model.Range{}, fmt.Errorf("markup of root %q has no range markers", ref.Marked)
		}
		return *rng, nil
	}
	start, err := ref.Start.resolve(r.doc)
	if err != nil {
		return model.Range{}, err
	}
	end, err := ref.End.resolve(r.doc)
	if err != nil {
		return model.Range{}, err
	}
	return model.NewRange(start, end)
}

func (r *runner) apply(step Step) error {
	switch {
	case step.Insert != nil:
		at, err := step.Insert.At.resolve(r.doc)
		if err != nil {
			return err
		}
		f, err := notation.Parse(step.Insert.Markup)
		if err != nil {
			return err
		}
		_, err = r.doc.Insert(at, f.Nodes...)
		return err
	case step.Remove != nil:
		at, err := step.Remove.At.resolve(r.doc)
		if err != nil {
			return err
		}
		_, err = r.doc.Remove(at, step.Remove.Count)
		return err
	case step.Move != nil:
		from, err := step.Move.From.resolve(r.doc)
		if err != nil {
			return err
		}
		to, err := step.Move.To.resolve(r.doc)
		if err != nil {
			return err
		}
		_, err = r.doc.Move(from, step.Move.Count, to)
		return err
	case step.Detach != "":
		lr, ok := r.ranges[step.Detach]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRange, step.Detach)
		}
		lr.Detach()
		return nil
	}
	return errors.New("step has no action")
}

func (r *runner) check(step int, exp *Expectation) error {
	var err error
	for _, name := range sortedKeys(exp.Ranges) {
		want := exp.Ranges[name]
		lr, ok := r.ranges[name]
		if !ok {
			err = multierr.Append(err, &ExpectationError{Step: step, Subject: "range " + name, Want: want.String(), Got: "no such range"})
			continue
		}
		if got := lr.Range().String(); got != want.String() {
			err = multierr.Append(err, &ExpectationError{Step: step, Subject: "range " + name, Want: want.String(), Got: got})
		}
	}
	for _, name := range sortedKeys(exp.Markup) {
		want := exp.Markup[name]
		root, ok := r.doc.Root(name)
		if !ok {
			err = multierr.Append(err, &ExpectationError{Step: step, Subject: "markup " + name, Want: want, Got: "no such root"})
			continue
		}
		if got := notation.Stringify(root, nil); got != want {
			err = multierr.Append(err, &ExpectationError{Step: step, Subject: "markup " + name, Want: want, Got: got})
		}
	}
	for _, name := range exp.Detached {
		lr, ok := r.ranges[name]
		if !ok || !lr.IsDetached() {
			err = multierr.Append(err, &ExpectationError{Step: step, Subject: "range " + name, Want: "detached", Got: "attached"})
		}
	}
	if exp.Version != nil && r.doc.Version() != *exp.Version {
		err = multierr.Append(err, &ExpectationError{
			Step: step, Subject: "version",
			Want: strconv.FormatUint(*exp.Version, 10), Got: strconv.FormatUint(r.doc.Version(), 10),
		})
	}
	if exp.Changes != nil {
		if got, ok := r.changes(); got != strconv.Itoa(*exp.Changes) || !ok {
			err = multierr.Append(err, &ExpectationError{
				Step: step, Subject: "changes",
				Want: strconv.Itoa(*exp.Changes), Got: got,
			})
		}
	}
	return err
}

// changes counts the journal entries recorded since setup. The second
// result is false when the count cannot be trusted.
func (r *runner) changes() (string, bool) {
	if r.journal == nil {
		return "journal disabled", false
	}
	entries, complete := r.journal.ChangesSince(r.base)
	if !complete {
		return fmt.Sprintf("%d retained, older changes dropped", len(entries)), false
	}
	return strconv.Itoa(len(entries)), true
}

func (r *runner) fillReport(report *Report) {
	report.Version = r.doc.Version()
	if r.journal != nil {
		report.Journal = r.journal.Summary(r.base)
	}
	report.Ranges = make(map[string]string, len(r.ranges))
	for name, lr := range r.ranges {
		s := lr.Range().String()
		if lr.IsDetached() {
			s += " (detached)"
		}
		report.Ranges[name] = s
	}
	report.Markup = make(map[string]string)
	for _, root := range r.doc.Roots() {
		report.Markup[root.Name()] = notation.Stringify(root, nil)
	}
	for _, e := range multierr.Errors(report.err) {
		report.Failures = append(report.Failures, e.Error())
	}
	report.Passed = report.err == nil
}

func (r *runner) close() {
	for _, lr := range r.ranges {
		lr.Detach()
	}
	if r.journal != nil && r.journal.IsAttached() {
		_ = r.journal.Detach()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
