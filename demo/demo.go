// Package demo applies the two caching idioms to a small validity check.
//
// Shared reads its reference value from a memoized function that every Shared
// object uses, so the expensive computation runs once per process. Instance
// reads it from a lazy field it owns, so the computation runs once per
// Instance.
package demo

import (
	"context"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/goliatone/go-memo-cache/lazy"
	"github.com/goliatone/go-memo-cache/memo"
)

// Answer is the value both computations produce.
const Answer = 42

// Output lines written by the demonstrations.
const (
	BigFuncMessage  = "Executing a very big func"
	LongFuncMessage = "Running a long function"
	NotValidMessage = "not valid"
	BusinessMessage = "Other business logic"
	Separator       = " ------------ "
)

// BigFunc returns the computation shared by all Shared objects. It announces
// itself on w every time it actually runs.
func BigFunc(w io.Writer) func(ctx context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		if _, err := fmt.Fprintln(w, BigFuncMessage); err != nil {
			return 0, err
		}
		return Answer, nil
	}
}

// LongFunc returns the computation behind each Instance's lazy field.
func LongFunc(w io.Writer) func() int {
	return func() int {
		fmt.Fprintln(w, LongFuncMessage)
		return Answer
	}
}

// Shared checks values against a memoized reference.
type Shared struct {
	ref *memo.Func[int]
	out io.Writer
}

// NewShared returns a Shared that compares against ref and reports on out.
func NewShared(ref *memo.Func[int], out io.Writer) *Shared {
	return &Shared{ref: ref, out: out}
}

// IsValid reports whether d differs from the reference value.
func (s *Shared) IsValid(ctx context.Context, d int) (bool, error) {
	ref, err := s.ref.Get(ctx)
	if err != nil {
		return false, err
	}
	return d != ref, nil
}

// Calc runs the business logic for d.
func (s *Shared) Calc(ctx context.Context, d int) error {
	valid, err := s.IsValid(ctx, d)
	if err != nil {
		return err
	}
	return report(s.out, valid)
}

// Instance checks values against a reference it computes lazily for itself.
type Instance struct {
	ID   uuid.UUID
	I    int
	TheS *lazy.Field[int]

	out io.Writer
}

// NewInstance returns an Instance whose TheS field is filled by compute on
// first read.
func NewInstance(i int, compute func() int, out io.Writer) *Instance {
	return &Instance{
		ID:   uuid.New(),
		I:    i,
		TheS: lazy.New(compute),
		out:  out,
	}
}

// IsValid reports whether d differs from the instance's reference value.
func (d *Instance) IsValid(v int) bool {
	return v != d.TheS.Get()
}

// Calc runs the business logic for v.
func (d *Instance) Calc(v int) error {
	return report(d.out, d.IsValid(v))
}

func report(w io.Writer, valid bool) error {
	if !valid {
		if _, err := fmt.Fprintln(w, NotValidMessage); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, BusinessMessage)
	return err
}

// RunShared drives two Shared objects through the same memoized reference.
// The reference is computed once, before the first check.
func RunShared(ctx context.Context, ref *memo.Func[int], w io.Writer) error {
	s := NewShared(ref, w)
	for _, d := range []int{30, 42, 52, 60} {
		if err := s.Calc(ctx, d); err != nil {
			return err
		}
	}

	s2 := NewShared(ref, w)
	for _, d := range []int{30, 52} {
		if err := s2.Calc(ctx, d); err != nil {
			return err
		}
	}

	log.WithField("computations", ref.Calls()).Debug("shared scenario done")
	return nil
}

// RunLazy reads the lazy field of two instances: d1, d2, then d1 again. The
// computation runs once for each instance.
func RunLazy(w io.Writer) {
	compute := LongFunc(w)
	d1 := NewInstance(10, compute, w)
	d2 := NewInstance(20, compute, w)

	for _, d := range []*Instance{d1, d2, d1} {
		log.WithField("instance", d.ID).WithField("cached", d.TheS.Computed()).Debug("reading the_s")
		d.TheS.Get()
	}
}

// RunLazyCalc runs the validity checks against per-instance references. A
// second instance is built halfway through, but every check goes to the first
// one, so the long computation runs once and the second field is never read.
func RunLazyCalc(w io.Writer) error {
	compute := LongFunc(w)

	d := NewInstance(10, compute, w)
	for _, v := range []int{30, 42, 52, 60} {
		if err := d.Calc(v); err != nil {
			return err
		}
	}

	d1 := NewInstance(20, compute, w)
	log.WithField("instance", d1.ID).WithField("cached", d1.TheS.Computed()).Debug("second instance idle")
	for _, v := range []int{30, 52} {
		if err := d.Calc(v); err != nil {
			return err
		}
	}
	return nil
}

// Scenario names accepted by Run.
const (
	ScenarioShared   = "shared"
	ScenarioLazy     = "lazy"
	ScenarioLazyCalc = "lazy-calc"
	ScenarioAll      = "all"
)

// Scenarios lists every name Run accepts.
var Scenarios = []string{ScenarioShared, ScenarioLazy, ScenarioLazyCalc, ScenarioAll}

// Run executes the named scenario. ScenarioAll runs the shared and lazy
// scenarios with the separator line between them.
func Run(ctx context.Context, scenario string, ref *memo.Func[int], w io.Writer) error {
	switch scenario {
	case ScenarioShared:
		return RunShared(ctx, ref, w)
	case ScenarioLazy:
		RunLazy(w)
		return nil
	case ScenarioLazyCalc:
		return RunLazyCalc(w)
	case ScenarioAll:
		if err := RunShared(ctx, ref, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, Separator); err != nil {
			return err
		}
		RunLazy(w)
		return nil
	}
	return fmt.Errorf("unknown scenario %q, want one of %v", scenario, Scenarios)
}
