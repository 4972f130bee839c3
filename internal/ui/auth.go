package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskman/internal/service"
	"taskman/internal/session"
)

type authForm struct {
	name     textinput.Model
	password textinput.Model
	focus    int
}

func newAuthForm() authForm {
	f := authForm{
		name:     newInput("name"),
		password: newInput("password"),
	}
	f.password.EchoMode = textinput.EchoPassword
	f.password.EchoCharacter = '•'
	f.name.Focus()
	return f
}

func (f *authForm) reset() {
	f.password.SetValue("")
	f.setFocus(0)
}

func (f *authForm) setFocus(i int) {
	f.focus = i
	if i == 0 {
		f.name.Focus()
		f.password.Blur()
		return
	}
	f.name.Blur()
	f.password.Focus()
}

func (f authForm) credentials() service.Credentials {
	return service.Credentials{
		Name:     strings.TrimSpace(f.name.Value()),
		Password: f.password.Value(),
	}
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.auth.setFocus(1 - m.auth.focus)
		return m, nil

	case "ctrl+n":
		if m.screen == screenLogin {
			m.screen = screenSignup
			m.status = ""
			m.err = ""
			m.auth.reset()
		}
		return m, nil

	case "esc":
		if m.screen == screenSignup {
			m.screen = screenLogin
			m.err = ""
			m.auth.reset()
		}
		return m, nil

	case "enter":
		if m.auth.focus == 0 {
			m.auth.setFocus(1)
			return m, nil
		}
		creds := m.auth.credentials()
		if creds.Validate() != nil {
			return m, nil
		}
		m.status = ""
		if m.screen == screenSignup {
			return m, signUpCmd(m.ctx, m.deps.Session, creds)
		}
		return m, signInCmd(m.ctx, m.deps.Session, creds)
	}

	var cmd tea.Cmd
	if m.auth.focus == 0 {
		m.auth.name, cmd = m.auth.name.Update(msg)
	} else {
		m.auth.password, cmd = m.auth.password.Update(msg)
	}
	return m, cmd
}

func (m Model) updateAuthResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signedInMsg:
		if msg.err != nil {
			m.err = "sign in failed: " + msg.err.Error()
			m.auth.reset()
			return m, nil
		}
		m.err = ""
		m.status = ""
		m.auth.reset()
		m.screen = screenTasks
		return m, m.listCmd()

	case signedUpMsg:
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.err = ""
		m.status = "account created, sign in"
		m.screen = screenLogin
		m.auth.reset()
	}
	return m, nil
}

func signInCmd(ctx context.Context, sm *session.Manager, creds service.Credentials) tea.Cmd {
	return func() tea.Msg {
		return signedInMsg{err: sm.SignIn(ctx, creds)}
	}
}

func signUpCmd(ctx context.Context, sm *session.Manager, creds service.Credentials) tea.Cmd {
	return func() tea.Msg {
		id, err := sm.SignUp(ctx, creds)
		return signedUpMsg{id: id, err: err}
	}
}

func (m Model) viewAuth() string {
	var b strings.Builder
	title := "Sign in"
	if m.screen == screenSignup {
		title = "Create account"
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("name     "))
	b.WriteString(m.auth.name.View())
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("password "))
	b.WriteString(m.auth.password.View())
	b.WriteString("\n")
	return b.String()
}
