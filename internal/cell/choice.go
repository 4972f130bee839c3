package cell

import (
	"fmt"
	"slices"
)

// Domain is the closed value type of a Choice cell. It is chosen by the
// caller at construction; nothing is inferred from the values themselves.
type Domain[T comparable] interface {
	// Format renders a value as the option text.
	Format(v T) string

	// Parse turns option text back into a value.
	Parse(s string) (T, error)
}

// TextChoice is the domain of plain strings. "true" and "false" stay strings.
type TextChoice struct{}

// Format returns s.
func (TextChoice) Format(s string) string { return s }

// Parse returns s.
func (TextChoice) Parse(s string) (string, error) { return s, nil }

// BoolChoice is the domain of booleans encoded as "true" and "false".
type BoolChoice struct{}

// Format returns "true" or "false".
func (BoolChoice) Format(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Parse accepts exactly "true" and "false".
func (BoolChoice) Parse(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean option: %q", s)
}

// Choice is a cell whose value is picked from an enumerated list.
type Choice[T comparable] struct {
	domain   Domain[T]
	options  []T
	value    T
	selected int
	state    State
	save     func(T)
}

// NewChoice creates a choice cell over options showing value.
func NewChoice[T comparable](domain Domain[T], options []T, value T, save func(T)) *Choice[T] {
	return &Choice[T]{
		domain:  domain,
		options: slices.Clone(options),
		value:   value,
		save:    save,
	}
}

// NewBoolChoice creates the true/false cell used for the done column.
func NewBoolChoice(value bool, save func(bool)) *Choice[bool] {
	return NewChoice[bool](BoolChoice{}, []bool{true, false}, value, save)
}

// Value returns the displayed value.
func (c *Choice[T]) Value() T { return c.value }

// SetValue replaces the displayed value. Owners call it when re-rendering.
func (c *Choice[T]) SetValue(v T) { c.value = v }

// State returns the current mode.
func (c *Choice[T]) State() State { return c.state }

// Text returns the displayed value as option text.
func (c *Choice[T]) Text() string { return c.domain.Format(c.value) }

// Options returns the option texts in order.
func (c *Choice[T]) Options() []string {
	out := make([]string, len(c.options))
	for i, o := range c.options {
		out[i] = c.domain.Format(o)
	}
	return out
}

// Selected returns the index of the highlighted option while Editing.
func (c *Choice[T]) Selected() int { return c.selected }

// Activate enters Editing with the current value highlighted, or the first
// option if the value is not among them.
func (c *Choice[T]) Activate() {
	if c.state == Editing {
		return
	}
	c.state = Editing
	c.selected = max(slices.Index(c.options, c.value), 0)
}

// Select highlights option i. Out-of-range indexes are ignored.
func (c *Choice[T]) Select(i int) {
	if c.state != Editing || i < 0 || i >= len(c.options) {
		return
	}
	c.selected = i
}

// Next highlights the following option, wrapping around.
func (c *Choice[T]) Next() {
	if c.state != Editing || len(c.options) == 0 {
		return
	}
	c.selected = (c.selected + 1) % len(c.options)
}

// Prev highlights the preceding option, wrapping around.
func (c *Choice[T]) Prev() {
	if c.state != Editing || len(c.options) == 0 {
		return
	}
	c.selected = (c.selected - 1 + len(c.options)) % len(c.options)
}

// Cancel leaves Editing without saving.
func (c *Choice[T]) Cancel() { c.state = Viewing }

// Commit leaves Editing and hands the highlighted option, parsed back
// through the domain, to the save callback. With no options nothing is
// saved. The cell is Viewing afterwards even if parsing fails.
func (c *Choice[T]) Commit() (bool, error) {
	if c.state != Editing {
		return false, nil
	}
	c.state = Viewing
	if len(c.options) == 0 {
		return false, nil
	}

	v, err := c.domain.Parse(c.domain.Format(c.options[c.selected]))
	if err != nil {
		return false, err
	}
	if c.save != nil {
		c.save(v)
	}
	return true, nil
}
