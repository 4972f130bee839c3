// Package ui is the interactive terminal client: a login screen, the task
// table with inline-editable cells, and the profile page.
package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"taskman/internal/profile"
	"taskman/internal/search"
	"taskman/internal/service"
	"taskman/internal/session"
	"taskman/internal/tasklist"
	"taskman/internal/transport"
)

// Deps are the controllers the UI drives.
type Deps struct {
	Tasks   *tasklist.Controller
	Session *session.Manager
	Profile *profile.Controller
	Remote  *search.Remote
	Logger  *zap.Logger
}

type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenTasks
	screenProfile
)

func (s screen) String() string {
	switch s {
	case screenSignup:
		return "signup"
	case screenTasks:
		return "tasks"
	case screenProfile:
		return "profile"
	}
	return "login"
}

// NavigateMsg moves the UI to the login screen. The transport sends it when
// the backend rejects the session.
type NavigateMsg struct {
	Path string
}

// Message types
type (
	tasksMsg    struct{ err error }
	signedInMsg struct{ err error }
	signedUpMsg struct {
		id  string
		err error
	}
	profileMsg struct {
		user service.User
		err  error
	}
	accountMsg struct {
		action string
		err    error
	}
	remoteMsg struct {
		query string
		tasks []service.Task
		err   error
	}
)

// cmdQueue collects commands produced by cell save callbacks during one
// Update. It is shared by every copy of the model.
type cmdQueue struct {
	cmds []tea.Cmd
}

func (q *cmdQueue) push(c tea.Cmd) { q.cmds = append(q.cmds, c) }

func (q *cmdQueue) drain() tea.Cmd {
	c := tea.Batch(q.cmds...)
	q.cmds = nil
	return c
}

// Model is the bubbletea model for the whole client.
type Model struct {
	ctx     context.Context
	deps    Deps
	logger  *zap.Logger
	screen  screen
	pending *cmdQueue

	auth  authForm
	table table
	prof  profilePage

	status   string
	err      string
	width    int
	quitting bool
}

// New creates the model. With a live session the task table is shown first,
// otherwise the login screen.
func New(ctx context.Context, deps Deps, loggedIn bool) Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := Model{
		ctx:     ctx,
		deps:    deps,
		logger:  logger.Named("ui"),
		screen:  screenLogin,
		pending: &cmdQueue{},
		auth:    newAuthForm(),
		table:   newTable(),
		prof:    newProfilePage(),
	}
	if loggedIn {
		m.screen = screenTasks
	}
	return m
}

// Run starts the program and blocks until it exits. Authentication failures
// reported through redirect switch the program to the login screen.
func Run(ctx context.Context, deps Deps, loggedIn bool, redirect *transport.Redirect, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(New(ctx, deps, loggedIn), opts...)

	redirect.Set(func(path string) { p.Send(NavigateMsg{Path: path}) })
	defer redirect.Set(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init loads the task list when starting signed in.
func (m Model) Init() tea.Cmd {
	if m.screen == screenTasks {
		return m.listCmd()
	}
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case NavigateMsg:
		if m.screen == screenLogin || m.screen == screenSignup {
			return m, nil
		}
		m.logger.Info("session rejected", zap.String("path", msg.Path))
		m.cancelEditing()
		m.screen = screenLogin
		m.status = "session expired, sign in again"
		m.err = ""
		m.auth.reset()
		return m, nil

	case tasksMsg:
		m.table.sync(m.deps.Tasks.Tasks(), m.newRow)
		m.setErr(msg.err)
		return m, nil

	case remoteMsg:
		// Only the reply to the current query of an open search counts.
		if !m.deps.Remote.Active() || msg.query != m.table.filter.Value() {
			return m, nil
		}
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.table.remote = msg.tasks
		m.table.remoteOpen = true
		return m, nil

	case signedInMsg, signedUpMsg:
		return m.updateAuthResult(msg)

	case profileMsg, accountMsg:
		return m.updateProfileResult(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin, screenSignup:
			return m.updateAuth(msg)
		case screenTasks:
			return m.updateTable(msg)
		case screenProfile:
			return m.updateProfile(msg)
		}
	}
	return m, nil
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var body string
	switch m.screen {
	case screenLogin, screenSignup:
		body = m.viewAuth()
	case screenTasks:
		body = m.viewTable()
	case screenProfile:
		body = m.viewProfile()
	}
	return body + "\n" + m.viewFooter()
}

// setErr shows err unless it is a validation failure, which is silent, or
// an authentication failure, which arrives as a NavigateMsg.
func (m *Model) setErr(err error) {
	switch {
	case err == nil:
		m.err = ""
	case errors.Is(err, service.ErrValidation), errors.Is(err, transport.ErrUnauthorized):
	default:
		m.err = err.Error()
	}
}

func (m Model) listCmd() tea.Cmd {
	tasks, ctx := m.deps.Tasks, m.ctx
	return func() tea.Msg {
		_, err := tasks.List(ctx)
		return tasksMsg{err: err}
	}
}

func (m Model) mutate(fn func(ctx context.Context, tasks *tasklist.Controller) error) tea.Cmd {
	tasks, ctx := m.deps.Tasks, m.ctx
	return func() tea.Msg {
		return tasksMsg{err: fn(ctx, tasks)}
	}
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}
