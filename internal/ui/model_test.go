package ui

import (
	"context"
	"errors"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskman/internal/cell"
	"taskman/internal/profile"
	"taskman/internal/search"
	"taskman/internal/session"
	"taskman/internal/tasklist"
	"taskman/internal/testutil"
)

func newDeps(t *testing.T) (Deps, *testutil.FakeService) {
	t.Helper()
	fs := testutil.NewFakeService()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	origin, _ := url.Parse("http://localhost/api/v1/")
	sm := session.NewManager(fs, session.NewStore(filepath.Join(t.TempDir(), "session.json"), jar, origin), nil)
	return Deps{
		Tasks:   tasklist.New(fs, nil),
		Session: sm,
		Profile: profile.New(fs, sm, nil),
		Remote:  search.NewRemote(fs),
	}, fs
}

// update applies msg and runs every resulting command to completion.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return run(t, next.(Model), cmd)
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = run(t, m, c)
		}
		return m
	default:
		return update(t, m, msg)
	}
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	ctrlU = tea.KeyMsg{Type: tea.KeyCtrlU}
)

func started(t *testing.T, titles ...string) (Model, *testutil.FakeService) {
	t.Helper()
	deps, fs := newDeps(t)
	for _, title := range titles {
		fs.AddTask(title, false)
	}
	m := New(context.Background(), deps, true)
	return run(t, m, m.Init()), fs
}

func titles(m Model) []string {
	var out []string
	for _, r := range m.table.visible() {
		out = append(out, r.title.Value())
	}
	return out
}

func TestInit_LoadsTasks(t *testing.T) {
	m, fs := started(t, "Buy milk", "Walk dog")
	assert.Equal(t, screenTasks, m.screen)
	assert.Equal(t, []string{"Buy milk", "Walk dog"}, titles(m))
	assert.Equal(t, 1, fs.Calls("ListTasks"))
	assert.Contains(t, m.View(), "Walk dog")
}

func TestInit_LoggedOutShowsLogin(t *testing.T) {
	deps, fs := newDeps(t)
	m := New(context.Background(), deps, false)
	assert.Nil(t, m.Init())
	assert.Equal(t, screenLogin, m.screen)
	assert.Contains(t, m.View(), "Sign in")
	assert.Equal(t, 0, fs.TotalCalls())
}

func TestLogin(t *testing.T) {
	deps, fs := newDeps(t)
	fs.AddTask("Buy milk", false)
	m := New(context.Background(), deps, false)

	m = update(t, m, keys("alice"))
	m = update(t, m, tab)
	m = update(t, m, keys("secret"))
	m = update(t, m, enter)

	assert.Equal(t, screenTasks, m.screen)
	assert.Equal(t, []string{"Buy milk"}, titles(m))
	assert.Equal(t, 1, fs.Calls("SignIn"))
}

func TestLogin_WrongPassword(t *testing.T) {
	deps, fs := newDeps(t)
	m := New(context.Background(), deps, false)

	m = update(t, m, keys("alice"))
	m = update(t, m, enter)
	m = update(t, m, keys("nope"))
	m = update(t, m, enter)

	assert.Equal(t, screenLogin, m.screen)
	assert.Contains(t, m.err, "sign in failed")
	assert.Equal(t, 0, fs.Calls("ListTasks"))
}

func TestLogin_BlankIsSilent(t *testing.T) {
	deps, fs := newDeps(t)
	m := New(context.Background(), deps, false)

	m = update(t, m, tab)
	m = update(t, m, enter)

	assert.Empty(t, m.err)
	assert.Equal(t, 0, fs.TotalCalls())
}

func TestSignup(t *testing.T) {
	deps, fs := newDeps(t)
	m := New(context.Background(), deps, false)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, screenSignup, m.screen)
	m = update(t, m, keys("bob"))
	m = update(t, m, tab)
	m = update(t, m, keys("pw"))
	m = update(t, m, enter)

	assert.Equal(t, screenLogin, m.screen)
	assert.Equal(t, "account created, sign in", m.status)
	assert.Equal(t, 1, fs.Calls("SignUp"))
	assert.Equal(t, 0, fs.Calls("SignIn"))
}

func TestEditTitle(t *testing.T) {
	m, fs := started(t, "Buy milk")
	id := fs.Tasks()[0].ID

	m = update(t, m, enter)
	require.NotNil(t, m.table.editing)
	assert.Equal(t, "Buy milk", m.table.editor.Value())

	m = update(t, m, ctrlU)
	m = update(t, m, keys("Buy bread"))
	m = update(t, m, enter)

	assert.Nil(t, m.table.editing)
	assert.Equal(t, []testutil.Update{{ID: id, Title: "Buy bread", IsDone: false}}, fs.Updates())
	assert.Equal(t, []string{"Buy bread"}, titles(m))
	assert.Equal(t, 2, fs.Calls("ListTasks"))
}

func TestEditTitle_EmptyIsDiscarded(t *testing.T) {
	m, fs := started(t, "Buy milk")
	before := fs.TotalCalls()

	m = update(t, m, enter)
	m = update(t, m, ctrlU)
	m = update(t, m, enter)

	assert.Nil(t, m.table.editing)
	assert.Equal(t, before, fs.TotalCalls())
	assert.Equal(t, []string{"Buy milk"}, titles(m))
}

func TestEditTitle_EscapeCancels(t *testing.T) {
	m, fs := started(t, "Buy milk")
	before := fs.TotalCalls()

	m = update(t, m, enter)
	m = update(t, m, keys(" now"))
	m = update(t, m, esc)

	assert.Nil(t, m.table.editing)
	assert.Equal(t, before, fs.TotalCalls())
	assert.Equal(t, []string{"Buy milk"}, titles(m))
}

func TestRefreshKeepsEditInProgress(t *testing.T) {
	m, _ := started(t, "Buy milk", "Walk dog")

	m = update(t, m, enter)
	m = update(t, m, keys("!"))
	m = run(t, m, m.listCmd())

	require.NotNil(t, m.table.editing)
	assert.Equal(t, cell.Editing, m.table.editing.title.State())
	assert.Equal(t, "Buy milk!", m.table.editing.title.Field())
}

func TestToggleDone(t *testing.T) {
	m, fs := started(t, "Buy milk")
	id := fs.Tasks()[0].ID

	m = update(t, m, space)

	assert.Equal(t, []testutil.Update{{ID: id, Title: "Buy milk", IsDone: true}}, fs.Updates())
	assert.True(t, m.table.rows[0].done.Value())
	assert.Contains(t, m.View(), "[x]")
}

func TestDoneChoiceCell(t *testing.T) {
	m, fs := started(t, "Buy milk")

	m = update(t, m, tab)
	require.Equal(t, colDone, m.table.column)
	m = update(t, m, enter)
	require.Equal(t, cell.Editing, m.table.rows[0].done.State())
	assert.Contains(t, m.View(), "true")

	m = update(t, m, keys("j"))
	m = update(t, m, keys("j"))
	m = update(t, m, keys("k"))
	m = update(t, m, enter)

	require.Len(t, fs.Updates(), 1)
	assert.True(t, fs.Updates()[0].IsDone)
	assert.Equal(t, cell.Viewing, m.table.rows[0].done.State())
}

func TestDoneChoiceCell_Escape(t *testing.T) {
	m, fs := started(t, "Buy milk")

	m = update(t, m, keys("h"))
	m = update(t, m, enter)
	m = update(t, m, keys("j"))
	m = update(t, m, esc)

	assert.Empty(t, fs.Updates())
	assert.False(t, m.table.rows[0].done.Value())
}

func TestAddTask(t *testing.T) {
	m, fs := started(t, "Buy milk")

	m = update(t, m, keys("a"))
	m = update(t, m, keys("Walk dog"))
	m = update(t, m, enter)

	assert.False(t, m.table.adding)
	assert.Equal(t, 1, fs.Calls("CreateTask"))
	assert.Equal(t, []string{"Buy milk", "Walk dog"}, titles(m))
}

func TestAddTask_EmptySendsNothing(t *testing.T) {
	m, fs := started(t)
	before := fs.TotalCalls()

	m = update(t, m, keys("a"))
	m = update(t, m, enter)

	assert.Equal(t, before, fs.TotalCalls())
	assert.Empty(t, m.err)
}

func TestDeleteTask(t *testing.T) {
	m, fs := started(t, "Buy milk", "Walk dog")

	m = update(t, m, keys("j"))
	m = update(t, m, keys("d"))

	assert.Equal(t, 1, fs.Calls("DeleteTask"))
	assert.Equal(t, []string{"Buy milk"}, titles(m))
	assert.Equal(t, 0, m.table.cursor)
}

func TestMutationErrorShown(t *testing.T) {
	m, fs := started(t, "Buy milk")
	fs.UpdateTaskErr = errors.New("boom")

	m = update(t, m, space)

	assert.Contains(t, m.err, "boom")
	assert.False(t, m.table.rows[0].done.Value())
	assert.Contains(t, m.View(), "error: boom")
}

func TestFilter(t *testing.T) {
	m, fs := started(t, "Buy milk", "Walk dog", "buy bread")
	before := fs.TotalCalls()

	m = update(t, m, keys("/"))
	m = update(t, m, keys("Buy"))
	m = update(t, m, enter)

	assert.Equal(t, []string{"Buy milk"}, titles(m))
	assert.Equal(t, before, fs.TotalCalls())

	m = update(t, m, esc)
	assert.Len(t, titles(m), 3)
}

func TestRemoteSearch(t *testing.T) {
	m, fs := started(t, "Buy milk", "Walk dog", "buy bread")

	m = update(t, m, keys("/"))
	m = update(t, m, keys("BUY"))
	m = update(t, m, enter)
	assert.Empty(t, titles(m))

	m = update(t, m, keys("s"))
	assert.Equal(t, 1, fs.Calls("SearchTasks"))
	assert.True(t, m.table.remoteOpen)
	assert.Len(t, m.table.remote, 2)
	assert.Contains(t, m.View(), "server results")

	m = update(t, m, esc)
	assert.False(t, m.table.remoteOpen)
	assert.False(t, m.deps.Remote.Active())
}

func TestRemoteSearch_EscapeWhilePending(t *testing.T) {
	m, fs := started(t, "Buy milk", "buy bread")

	next, pending := m.Update(keys("s"))
	m = next.(Model)
	require.NotNil(t, pending)
	m = update(t, m, esc)
	assert.False(t, m.deps.Remote.Active())

	m = run(t, m, pending)
	// A reply that was already on the wire when esc was pressed.
	m = update(t, m, remoteMsg{query: "", tasks: fs.Tasks()})

	assert.False(t, m.table.remoteOpen)
	assert.Empty(t, m.table.remote)
	assert.NotContains(t, m.View(), "server results")
}

func TestRemoteSearch_FollowsQuery(t *testing.T) {
	m, fs := started(t, "Buy milk", "Walk dog", "buy bread")

	m = update(t, m, keys("s"))
	require.True(t, m.table.remoteOpen)
	assert.Len(t, m.table.remote, 3)

	m = update(t, m, keys("/"))
	m = update(t, m, keys("walk"))
	m = update(t, m, enter)

	assert.Equal(t, 2, fs.Calls("SearchTasks"))
	assert.Equal(t, "walk", m.deps.Remote.Query())
	require.Len(t, m.table.remote, 1)
	assert.Equal(t, "Walk dog", m.table.remote[0].Title)
	assert.Empty(t, titles(m))
}

func TestRemoteSearch_StaleReplyDropped(t *testing.T) {
	m, _ := started(t, "Buy milk", "Walk dog")

	next, first := m.Update(keys("s"))
	m = next.(Model)
	m = update(t, m, keys("/"))
	next, second := m.Update(keys("dog"))
	m = next.(Model)

	m = run(t, m, second)
	m = run(t, m, first)

	require.Len(t, m.table.remote, 1)
	assert.Equal(t, "Walk dog", m.table.remote[0].Title)
}

func TestNavigateMsg_CancelsEdit(t *testing.T) {
	m, fs := started(t, "Buy milk")
	before := fs.TotalCalls()

	m = update(t, m, enter)
	m = update(t, m, keys("!"))
	row := m.table.editing
	require.NotNil(t, row)

	m = update(t, m, NavigateMsg{Path: "/login"})

	assert.Equal(t, screenLogin, m.screen)
	assert.Nil(t, m.table.editing)
	assert.Equal(t, cell.Viewing, row.title.State())
	assert.Empty(t, m.table.editor.Value())
	assert.Equal(t, before, fs.TotalCalls())
}

func TestNavigateMsg(t *testing.T) {
	m, _ := started(t, "Buy milk")

	m = update(t, m, NavigateMsg{Path: "/login"})

	assert.Equal(t, screenLogin, m.screen)
	assert.Equal(t, "session expired, sign in again", m.status)
}

func TestNavigateMsg_IgnoredOnLogin(t *testing.T) {
	deps, _ := newDeps(t)
	m := New(context.Background(), deps, false)

	m = update(t, m, NavigateMsg{Path: "/login"})

	assert.Equal(t, screenLogin, m.screen)
	assert.Empty(t, m.status)
}

func TestProfile(t *testing.T) {
	m, fs := started(t)

	m = update(t, m, keys("p"))
	require.Equal(t, screenProfile, m.screen)
	assert.Equal(t, "alice", m.prof.user.Name)
	assert.Contains(t, m.View(), "alice")

	m = update(t, m, keys("n"))
	m = update(t, m, ctrlU)
	m = update(t, m, keys("alicia"))
	m = update(t, m, enter)

	assert.Equal(t, "name updated", m.status)
	assert.Equal(t, "alicia", m.prof.user.Name)
	assert.Equal(t, 1, fs.Calls("UpdateName"))

	m = update(t, m, esc)
	assert.Equal(t, screenTasks, m.screen)
}

func TestProfile_ChangePassword(t *testing.T) {
	m, fs := started(t)

	m = update(t, m, keys("p"))
	m = update(t, m, keys("w"))
	m = update(t, m, keys("hunter2"))
	assert.NotContains(t, m.View(), "hunter2")
	m = update(t, m, enter)

	assert.Equal(t, "password changed", m.status)
	assert.Equal(t, 1, fs.Calls("UpdatePassword"))
}

func TestProfile_SignOut(t *testing.T) {
	m, fs := started(t, "Buy milk")

	m = update(t, m, keys("p"))
	m = update(t, m, keys("o"))

	assert.Equal(t, screenLogin, m.screen)
	assert.False(t, fs.SignedIn())
	assert.Empty(t, m.table.rows)
}

func TestProfile_QuitNeedsConfirmation(t *testing.T) {
	m, fs := started(t, "Buy milk")

	m = update(t, m, keys("p"))
	m = update(t, m, keys("X"))
	m = update(t, m, keys("n"))
	assert.Equal(t, 0, fs.Calls("Quit"))
	assert.Equal(t, screenProfile, m.screen)

	m = update(t, m, keys("X"))
	m = update(t, m, keys("y"))
	assert.Equal(t, 1, fs.Calls("Quit"))
	assert.Equal(t, screenLogin, m.screen)
	assert.Equal(t, "account deleted", m.status)
}

func TestQuitKey(t *testing.T) {
	m, _ := started(t)
	next, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}
