// Package cell implements inline-editable table cells as small state
// machines. A cell shows its owner's value while Viewing and an editable
// field while Editing; committing hands the edited value back to the owner
// through a save callback and returns to Viewing at once. The displayed
// value only changes when the owner calls SetValue.
package cell

// State is the mode a cell is in.
type State int

const (
	// Viewing displays the current value.
	Viewing State = iota

	// Editing displays an editable field.
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Text is a single free-text cell.
type Text struct {
	value string
	field string
	state State
	save  func(string)
}

// NewText creates a text cell showing value. save is called with each
// non-empty committed edit.
func NewText(value string, save func(string)) *Text {
	return &Text{value: value, save: save}
}

// Value returns the displayed value.
func (c *Text) Value() string { return c.value }

// SetValue replaces the displayed value. Owners call it when re-rendering.
func (c *Text) SetValue(v string) { c.value = v }

// State returns the current mode.
func (c *Text) State() State { return c.state }

// Field returns the in-progress edit. It is empty while Viewing.
func (c *Text) Field() string { return c.field }

// Activate enters Editing with the field pre-populated from the value.
// It does nothing if the cell is already Editing.
func (c *Text) Activate() {
	if c.state == Editing {
		return
	}
	c.state = Editing
	c.field = c.value
}

// SetField replaces the in-progress edit. Ignored while Viewing.
func (c *Text) SetField(s string) {
	if c.state != Editing {
		return
	}
	c.field = s
}

// Cancel leaves Editing without saving.
func (c *Text) Cancel() {
	c.state = Viewing
	c.field = ""
}

// Commit leaves Editing. A non-empty field is passed to the save callback
// exactly once; an empty one is discarded. Commit reports whether save was
// called. The cell is Viewing afterwards whatever the save does.
func (c *Text) Commit() bool {
	if c.state != Editing {
		return false
	}
	field := c.field
	c.state = Viewing
	c.field = ""

	if field == "" {
		return false
	}
	if c.save != nil {
		c.save(field)
	}
	return true
}
