package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskman/internal/cell"
	"taskman/internal/search"
	"taskman/internal/service"
	"taskman/internal/tasklist"
)

type column int

const (
	colDone column = iota
	colTitle
)

// row pairs a task with its two editable cells. Rows survive re-fetches so
// that an edit in progress is not lost; only their values are replaced.
type row struct {
	task  service.Task
	title *cell.Text
	done  *cell.Choice[bool]
}

type table struct {
	rows    []*row
	cursor  int
	column  column
	editing *row
	editor  textinput.Model

	filter    textinput.Model
	filtering bool

	newTitle textinput.Model
	adding   bool

	remote     []service.Task
	remoteOpen bool
}

func newTable() table {
	return table{
		column:   colTitle,
		editor:   newInput(""),
		filter:   newInput("search"),
		newTitle: newInput("new task"),
	}
}

// sync replaces row values with tasks, keeping the rows of tasks that are
// still present.
func (t *table) sync(tasks []service.Task, mk func(service.Task) *row) {
	byID := make(map[string]*row, len(t.rows))
	for _, r := range t.rows {
		byID[r.task.ID] = r
	}

	rows := make([]*row, 0, len(tasks))
	for _, task := range tasks {
		r, ok := byID[task.ID]
		if !ok {
			r = mk(task)
		} else {
			r.task = task
			r.title.SetValue(task.Title)
			r.done.SetValue(task.IsDone)
		}
		rows = append(rows, r)
	}
	if t.editing != nil && !slices.Contains(rows, t.editing) {
		t.editing = nil
		t.editor.Blur()
	}
	t.rows = rows
	t.clamp()
}

// visible returns the rows matching the search box, in order.
func (t table) visible() []*row {
	tasks := make([]service.Task, len(t.rows))
	for i, r := range t.rows {
		tasks[i] = r.task
	}
	keep := make(map[string]bool)
	for _, task := range search.Filter(tasks, t.filter.Value()) {
		keep[task.ID] = true
	}

	out := make([]*row, 0, len(keep))
	for _, r := range t.rows {
		if keep[r.task.ID] {
			out = append(out, r)
		}
	}
	return out
}

func (t *table) clamp() {
	n := len(t.visible())
	if t.cursor >= n {
		t.cursor = n - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

func (t table) current() *row {
	vis := t.visible()
	if t.cursor < 0 || t.cursor >= len(vis) {
		return nil
	}
	return vis[t.cursor]
}

func (m Model) newRow(task service.Task) *row {
	id, q := task.ID, m.pending
	r := &row{task: task}
	r.title = cell.NewText(task.Title, func(v string) {
		q.push(m.mutate(func(ctx context.Context, tasks *tasklist.Controller) error {
			return tasks.SetTitle(ctx, id, v)
		}))
	})
	r.done = cell.NewBoolChoice(task.IsDone, func(v bool) {
		q.push(m.mutate(func(ctx context.Context, tasks *tasklist.Controller) error {
			return tasks.SetDone(ctx, id, v)
		}))
	})
	return r
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := &m.table
	switch {
	case t.editing != nil:
		return m.updateEditing(msg)
	case t.filtering:
		return m.updateFilter(msg)
	case t.adding:
		return m.updateAdding(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if t.cursor > 0 {
			t.cursor--
		}
	case "down", "j":
		if t.cursor < len(t.visible())-1 {
			t.cursor++
		}
	case "left", "h":
		t.column = colDone
	case "right", "l":
		t.column = colTitle
	case "tab":
		t.column = 1 - t.column

	case "enter", "e":
		r := t.current()
		if r == nil {
			return m, nil
		}
		t.editing = r
		if t.column == colTitle {
			r.title.Activate()
			t.editor.SetValue(r.title.Field())
			t.editor.CursorEnd()
			t.editor.Focus()
		} else {
			r.done.Activate()
		}

	case " ", "space":
		r := t.current()
		if r == nil {
			return m, nil
		}
		r.done.Activate()
		r.done.Select(slices.Index(r.done.Options(), cell.BoolChoice{}.Format(!r.done.Value())))
		if _, err := r.done.Commit(); err != nil {
			m.setErr(err)
		}
		return m, m.pending.drain()

	case "/":
		t.filtering = true
		t.filter.Focus()

	case "a":
		t.adding = true
		t.newTitle.Focus()

	case "d", "x":
		r := t.current()
		if r == nil {
			return m, nil
		}
		id := r.task.ID
		return m, m.mutate(func(ctx context.Context, tasks *tasklist.Controller) error {
			return tasks.Remove(ctx, id)
		})

	case "r":
		return m, m.listCmd()

	case "s":
		m.deps.Remote.Activate()
		return m, remoteCmd(m.ctx, m.deps.Remote, t.filter.Value())

	case "p":
		m.screen = screenProfile
		m.err = ""
		return m, loadProfileCmd(m.ctx, m.deps.Profile)

	case "esc":
		if t.remoteOpen || m.deps.Remote.Active() {
			t.remoteOpen = false
			t.remote = nil
			m.deps.Remote.Deactivate()
			return m, nil
		}
		t.filter.SetValue("")
		t.clamp()
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := &m.table
	r := t.editing

	if r.title.State() == cell.Editing {
		switch msg.String() {
		case "enter":
			r.title.SetField(t.editor.Value())
			r.title.Commit()
			m.stopEditing()
			return m, m.pending.drain()
		case "esc":
			r.title.Cancel()
			m.stopEditing()
			return m, nil
		}
		var cmd tea.Cmd
		t.editor, cmd = t.editor.Update(msg)
		r.title.SetField(t.editor.Value())
		return m, cmd
	}

	switch msg.String() {
	case "up", "k", "left", "h":
		r.done.Prev()
	case "down", "j", "right", "l", "tab":
		r.done.Next()
	case "enter":
		_, err := r.done.Commit()
		m.stopEditing()
		if err != nil {
			m.setErr(err)
		}
		return m, m.pending.drain()
	case "esc":
		r.done.Cancel()
		m.stopEditing()
	}
	return m, nil
}

func (m *Model) stopEditing() {
	m.table.editing = nil
	m.table.editor.Blur()
	m.table.editor.SetValue("")
}

// cancelEditing drops an open edit without saving.
func (m *Model) cancelEditing() {
	r := m.table.editing
	if r == nil {
		return
	}
	if r.title.State() == cell.Editing {
		r.title.Cancel()
	}
	if r.done.State() == cell.Editing {
		r.done.Cancel()
	}
	m.stopEditing()
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := &m.table
	before := t.filter.Value()
	var cmd tea.Cmd
	switch msg.String() {
	case "enter":
		t.filtering = false
		t.filter.Blur()
		return m, nil
	case "esc":
		t.filtering = false
		t.filter.Blur()
		t.filter.SetValue("")
	default:
		t.filter, cmd = t.filter.Update(msg)
	}
	t.clamp()

	// An open server search follows the query.
	if q := t.filter.Value(); q != before && m.deps.Remote.Active() {
		return m, tea.Batch(cmd, remoteCmd(m.ctx, m.deps.Remote, q))
	}
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := &m.table
	switch msg.String() {
	case "enter":
		title := t.newTitle.Value()
		t.adding = false
		t.newTitle.Blur()
		t.newTitle.SetValue("")
		return m, m.mutate(func(ctx context.Context, tasks *tasklist.Controller) error {
			return tasks.Create(ctx, title)
		})
	case "esc":
		t.adding = false
		t.newTitle.Blur()
		t.newTitle.SetValue("")
		return m, nil
	}
	var cmd tea.Cmd
	t.newTitle, cmd = t.newTitle.Update(msg)
	return m, cmd
}

func remoteCmd(ctx context.Context, r *search.Remote, q string) tea.Cmd {
	return func() tea.Msg {
		tasks, err := r.SetQuery(ctx, q)
		return remoteMsg{query: q, tasks: tasks, err: err}
	}
}

func (m Model) viewTable() string {
	t := m.table
	var b strings.Builder

	b.WriteString(headerStyle.Render("Tasks"))
	b.WriteString("  ")
	if t.filtering || t.filter.Value() != "" {
		b.WriteString(labelStyle.Render("/ "))
		b.WriteString(t.filter.View())
	}
	b.WriteString("\n\n")

	vis := t.visible()
	if len(vis) == 0 {
		b.WriteString(dimStyle.Render("no tasks"))
		b.WriteString("\n")
	}
	for i, r := range vis {
		selected := i == t.cursor
		marker := "  "
		if selected {
			marker = cursorStyle.Render("> ")
		}
		b.WriteString(marker)
		b.WriteString(m.viewDoneCell(r, selected && t.column == colDone))
		b.WriteString("  ")
		b.WriteString(m.viewTitleCell(r, selected && t.column == colTitle))
		b.WriteString("\n")
	}

	if t.adding {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("add: "))
		b.WriteString(t.newTitle.View())
		b.WriteString("\n")
	}

	if t.remoteOpen {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(fmt.Sprintf("server results for %q", m.deps.Remote.Query())))
		b.WriteString("\n")
		if len(t.remote) == 0 {
			b.WriteString(dimStyle.Render("  no matches"))
			b.WriteString("\n")
		}
		for _, task := range t.remote {
			b.WriteString("  ")
			b.WriteString(doneMark(task.IsDone))
			b.WriteString("  ")
			b.WriteString(task.Title)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) viewDoneCell(r *row, focused bool) string {
	if r.done.State() == cell.Editing {
		opts := r.done.Options()
		parts := make([]string, len(opts))
		for i, o := range opts {
			if i == r.done.Selected() {
				parts[i] = selectedStyle.Render(o)
			} else {
				parts[i] = dimStyle.Render(o)
			}
		}
		return strings.Join(parts, " ")
	}
	s := doneMark(r.done.Value())
	if focused {
		return focusStyle.Render(s)
	}
	return s
}

func (m Model) viewTitleCell(r *row, focused bool) string {
	if r.title.State() == cell.Editing {
		return m.table.editor.View()
	}
	s := r.title.Value()
	if r.done.Value() {
		s = doneStyle.Render(s)
	}
	if focused {
		return focusStyle.Render(s)
	}
	return s
}

func doneMark(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
