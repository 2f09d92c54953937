// Package wizard implements linear multi-step forms whose steps advance
// only once the fields they own validate.
package wizard

import (
	"errors"
	"fmt"

	"github.com/myrobot/academy/internal/validator"
)

var ErrUnknownStep = errors.New("unknown step")

// Step names the struct fields (Go names, dotted for nested structs) that
// one page of the form owns.
type Step struct {
	Name   string
	Fields []string
}

type Flow[T any] struct {
	Name  string
	Steps []Step
	v     *validator.Validator
}

func New[T any](name string, v *validator.Validator, steps ...Step) *Flow[T] {
	if len(steps) == 0 {
		panic("wizard: flow " + name + " has no steps")
	}
	return &Flow[T]{Name: name, Steps: steps, v: v}
}

// State describes a position in the flow for the client.
type State struct {
	Step  int    `json:"step"`
	Name  string `json:"name"`
	Total int    `json:"total"`
	Last  bool   `json:"last"`
}

func (f *Flow[T]) Last() int { return len(f.Steps) - 1 }

func (f *Flow[T]) State(step int) State {
	step = f.clamp(step)
	return State{Step: step, Name: f.Steps[step].Name, Total: len(f.Steps), Last: step == f.Last()}
}

// Next validates only the fields of step and returns the following step.
// On the last step it stays put. A failed validation returns step unchanged
// together with a *validator.FieldErrors.
func (f *Flow[T]) Next(step int, data *T) (int, error) {
	if step < 0 || step > f.Last() {
		return step, fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	if err := f.v.StructPartial(data, f.Steps[step].Fields...); err != nil {
		return step, err
	}
	if step == f.Last() {
		return step, nil
	}
	return step + 1, nil
}

// Prev returns the previous step, saturating at the first.
func (f *Flow[T]) Prev(step int) int {
	return f.clamp(step - 1)
}

// Validate checks the fields of every step, as done before submission.
func (f *Flow[T]) Validate(data *T) error {
	var all []string
	for _, s := range f.Steps {
		all = append(all, s.Fields...)
	}
	return f.v.StructPartial(data, all...)
}

func (f *Flow[T]) clamp(step int) int {
	if step < 0 {
		return 0
	}
	if step > f.Last() {
		return f.Last()
	}
	return step
}

// ValidateStep checks the fields of a single step without moving.
func (f *Flow[T]) ValidateStep(step int, data *T) error {
	if step < 0 || step > f.Last() {
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	return f.v.StructPartial(data, f.Steps[step].Fields...)
}
