package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskman/internal/profile"
	"taskman/internal/service"
)

type profileMode int

const (
	profileView profileMode = iota
	profileRename
	profilePassword
	profileConfirmQuit
)

type profilePage struct {
	user  service.User
	mode  profileMode
	input textinput.Model
}

func newProfilePage() profilePage {
	return profilePage{input: newInput("")}
}

func (p *profilePage) closeInput() {
	p.mode = profileView
	p.input.Blur()
	p.input.SetValue("")
	p.input.EchoMode = textinput.EchoNormal
}

func (m Model) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.prof
	key := msg.String()

	switch p.mode {
	case profileRename, profilePassword:
		switch key {
		case "enter":
			value := p.input.Value()
			mode := p.mode
			p.closeInput()
			if mode == profileRename {
				return m, accountCmd(m.ctx, "rename", func(ctx context.Context, c *profile.Controller) error {
					return c.Rename(ctx, value)
				}, m.deps.Profile)
			}
			return m, accountCmd(m.ctx, "password", func(ctx context.Context, c *profile.Controller) error {
				return c.ChangePassword(ctx, value)
			}, m.deps.Profile)
		case "esc":
			p.closeInput()
			return m, nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return m, cmd

	case profileConfirmQuit:
		p.mode = profileView
		if key == "y" {
			return m, accountCmd(m.ctx, "quit", func(ctx context.Context, c *profile.Controller) error {
				return c.Quit(ctx)
			}, m.deps.Profile)
		}
		m.status = ""
		return m, nil
	}

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "esc", "b":
		m.screen = screenTasks
		m.err = ""
		m.status = ""
		return m, nil
	case "n":
		p.mode = profileRename
		p.input.SetValue(p.user.Name)
		p.input.CursorEnd()
		p.input.Focus()
	case "w":
		p.mode = profilePassword
		p.input.EchoMode = textinput.EchoPassword
		p.input.Focus()
	case "o":
		return m, accountCmd(m.ctx, "signout", func(ctx context.Context, c *profile.Controller) error {
			return c.SignOut(ctx)
		}, m.deps.Profile)
	case "X":
		p.mode = profileConfirmQuit
		m.status = "delete account and all tasks? (y/n)"
	}
	return m, nil
}

func (m Model) updateProfileResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profileMsg:
		m.prof.user = msg.user
		m.setErr(msg.err)

	case accountMsg:
		if msg.err != nil {
			m.setErr(msg.err)
			if msg.action != "signout" {
				return m, nil
			}
		}
		switch msg.action {
		case "rename":
			m.prof.user = m.deps.Profile.User()
			m.status = "name updated"
		case "password":
			m.status = "password changed"
		case "signout", "quit":
			m.screen = screenLogin
			m.prof.user = service.User{}
			m.table = newTable()
			m.auth.reset()
			m.status = "signed out"
			if msg.action == "quit" {
				m.status = "account deleted"
			}
		}
	}
	return m, nil
}

func loadProfileCmd(ctx context.Context, c *profile.Controller) tea.Cmd {
	return func() tea.Msg {
		user, err := c.Load(ctx)
		return profileMsg{user: user, err: err}
	}
}

func accountCmd(ctx context.Context, action string, fn func(context.Context, *profile.Controller) error, c *profile.Controller) tea.Cmd {
	return func() tea.Msg {
		return accountMsg{action: action, err: fn(ctx, c)}
	}
}

func (m Model) viewProfile() string {
	p := m.prof
	var b strings.Builder
	b.WriteString(headerStyle.Render("Profile"))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	field("name     ", p.user.Name)
	field("id       ", p.user.ID)
	field("created  ", formatTime(p.user.CreatedAt))
	field("updated  ", formatTime(p.user.UpdatedAt))

	switch p.mode {
	case profileRename:
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("new name: "))
		b.WriteString(p.input.View())
		b.WriteString("\n")
	case profilePassword:
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("new password: "))
		b.WriteString(p.input.View())
		b.WriteString("\n")
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
