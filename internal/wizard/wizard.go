// Package wizard drives a multi-step form as a linear state machine.
//
// A Flow is an ordered list of steps, each with a validation predicate over the form payload.
// A Navigator holds the current step of one form and gates forward motion on those predicates.
// Backward moves are always allowed. Jumping forward is allowed only when every step before
// the target validates, so a step can never be reached with an incomplete predecessor.
package wizard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStepIncomplete = errors.New("step incomplete")
	ErrUnknownStep    = errors.New("unknown step")
	ErrNoNextStep     = errors.New("already at the last step")
)

// Payload is the form state the predicates look at.
type Payload = map[string]any

// Step is one section of a form. Validate returns the names of unmet requirements; none means valid.
type Step struct {
	ID       string
	Title    string
	Validate func(Payload) []string
}

func (s Step) missing(p Payload) []string {
	if s.Validate == nil {
		return nil
	}
	return s.Validate(p)
}

// IncompleteError names the step that blocked a transition and what it still needs.
type IncompleteError struct {
	Step    string
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("step %q incomplete: missing %s", e.Step, strings.Join(e.Missing, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrStepIncomplete
}

type Flow struct {
	name  string
	steps []Step
	index map[string]int
}

func NewFlow(name string, steps ...Step) (*Flow, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("flow %q has no steps", name)
	}

	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			return nil, fmt.Errorf("flow %q: step %d has no id", name, i)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("flow %q: duplicate step %q", name, s.ID)
		}
		index[s.ID] = i
	}

	return &Flow{name: name, steps: steps, index: index}, nil
}

func MustFlow(name string, steps ...Step) *Flow {
	f, err := NewFlow(name, steps...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Flow) Name() string {
	return f.name
}

func (f *Flow) Steps() []Step {
	return append([]Step(nil), f.steps...)
}

func (f *Flow) StepIDs() []string {
	ids := make([]string, len(f.steps))
	for i, s := range f.steps {
		ids[i] = s.ID
	}
	return ids
}

func (f *Flow) First() Step {
	return f.steps[0]
}

func (f *Flow) Has(id string) bool {
	_, ok := f.index[id]
	return ok
}

// Validate checks every step in order and returns the first failure.
func (f *Flow) Validate(p Payload) error {
	for _, s := range f.steps {
		if missing := s.missing(p); len(missing) > 0 {
			return &IncompleteError{Step: s.ID, Missing: missing}
		}
	}
	return nil
}

// Start returns a navigator on the first step.
func (f *Flow) Start(p Payload) *Navigator {
	return &Navigator{flow: f, payload: p}
}

// Resume returns a navigator on the step with the given id, or the first step when the id is unknown.
func (f *Flow) Resume(stepID string, p Payload) *Navigator {
	n := f.Start(p)
	if i, ok := f.index[stepID]; ok {
		n.current = i
	}
	return n
}

type Navigator struct {
	flow    *Flow
	current int
	payload Payload
}

func (n *Navigator) Current() Step {
	return n.flow.steps[n.current]
}

func (n *Navigator) Index() int {
	return n.current
}

func (n *Navigator) IsFirst() bool {
	return n.current == 0
}

func (n *Navigator) IsLast() bool {
	return n.current == len(n.flow.steps)-1
}

func (n *Navigator) SetPayload(p Payload) {
	n.payload = p
}

// Missing lists what the current step still needs.
func (n *Navigator) Missing() []string {
	return n.Current().missing(n.payload)
}

// Next advances one step if the current step validates. On refusal the current step is unchanged.
func (n *Navigator) Next() error {
	if n.IsLast() {
		return ErrNoNextStep
	}
	if missing := n.Missing(); len(missing) > 0 {
		return &IncompleteError{Step: n.Current().ID, Missing: missing}
	}
	n.current++
	return nil
}

// Previous moves back one step. It is a no-op on the first step.
func (n *Navigator) Previous() bool {
	if n.IsFirst() {
		return false
	}
	n.current--
	return true
}

// JumpTo moves to the step with the given id. Moving forward requires every earlier step to validate.
func (n *Navigator) JumpTo(id string) error {
	target, ok := n.flow.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStep, id)
	}

	if target > n.current {
		for _, s := range n.flow.steps[:target] {
			if missing := s.missing(n.payload); len(missing) > 0 {
				return &IncompleteError{Step: s.ID, Missing: missing}
			}
		}
	}

	n.current = target
	return nil
}

// Completed reports whether the step with the given id and all steps before it validate.
func (n *Navigator) Completed(id string) bool {
	target, ok := n.flow.index[id]
	if !ok {
		return false
	}
	for i := 0; i <= target; i++ {
		if len(n.flow.steps[i].missing(n.payload)) > 0 {
			return false
		}
	}
	return true
}

// CanSubmit reports whether the whole form validates. Reaching the last step never submits on its own.
func (n *Navigator) CanSubmit() error {
	return n.flow.Validate(n.payload)
}
