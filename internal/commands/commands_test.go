package commands_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/session"
	"taskman/internal/testutil"
	"taskman/internal/transport"
)

var testOrigin, _ = url.Parse("http://localhost/api/v1/")

// newApp builds an App over a FakeService with an empty session.
func newApp(t *testing.T) (*commands.App, *testutil.FakeService, http.CookieJar) {
	t.Helper()
	svc := testutil.NewFakeService()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), jar, testOrigin)
	return commands.NewApp(svc, session.NewManager(svc, store, nil), nil), svc, jar
}

// storeSession puts an unexpired session cookie in jar.
func storeSession(t *testing.T, jar http.CookieJar) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &session.Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test"))
	if err != nil {
		t.Fatal(err)
	}
	jar.SetCookies(testOrigin, []*http.Cookie{{Name: session.CookieName, Value: token, Path: "/"}})
}

// runCommand is a helper to run a command against app.
func runCommand(t *testing.T, cmd commands.Command, app *commands.App, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, app, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func expect(t *testing.T, code int, stdout, stderr string, wantCode int, wantOut, wantErr string) {
	t.Helper()
	if code != wantCode {
		t.Errorf("expected exit code %d, got %d", wantCode, code)
	}
	if stdout != wantOut {
		t.Errorf("expected stdout %q, got %q", wantOut, stdout)
	}
	if stderr != wantErr {
		t.Errorf("expected stderr %q, got %q", wantErr, stderr)
	}
}

// scripted answers prompts in order.
type scripted struct {
	answers []string
	labels  []string
}

func (s *scripted) next(label string) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.answers) == 0 {
		return "", commands.ErrNoInput
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scripted) Prompt(label string) (string, error)   { return s.next(label) }
func (s *scripted) Password(label string) (string, error) { return s.next(label) }

func unauthorized() error {
	return &transport.StatusError{Method: "GET", Path: "/tasks", Code: http.StatusUnauthorized}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	app, _, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "taskman 0.1.0\n", "")
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	app, _, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, app, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"Usage:", "taskman add <title...>", "taskman quit --yes", "--config <dir>"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for ls command
func TestListCommand_WithTasks(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)
	svc.AddTask("Buy eggs", true)

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "   1  [ ] Buy milk\n   2  [x] Buy eggs\n", "")
}

func TestListCommand_Empty(t *testing.T) {
	app, _, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "no tasks found\n", "")
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	app, _, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, app, nil, true)
	expect(t, code, stdout, stderr, exitcode.Success, "", "")
}

func TestListCommand_QueryKeepsNumbers(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)
	svc.AddTask("Walk dog", false)
	svc.AddTask("buy bread", false)

	cmd := &commands.ListCmd{}
	cmd.SetQuery("Buy")
	stdout, stderr, code := runCommand(t, cmd, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "   1  [ ] Buy milk\n", "")
	if svc.Calls("SearchTasks") != 0 {
		t.Error("ls --query must filter locally")
	}
}

func TestListCommand_QueryNoMatch(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)

	cmd := &commands.ListCmd{}
	cmd.SetQuery("milk!")
	stdout, stderr, code := runCommand(t, cmd, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "no tasks found\n", "")
}

func TestListCommand_BackendError(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.ListTasksErr = errors.New("connection refused")

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.BackendError, "", "error: backend error: connection refused\n")
}

func TestListCommand_SessionExpired(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.ListTasksErr = unauthorized()

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.AuthError, "", "error: session expired (run: taskman login)\n")
}

// Tests for add command
func TestAddCommand(t *testing.T) {
	app, svc, _ := newApp(t)

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, app, []string{"Buy", "milk"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")

	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].IsDone {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
	if svc.Calls("ListTasks") != 1 {
		t.Errorf("expected one refetch, got %d", svc.Calls("ListTasks"))
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	app, _, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, app, []string{"Buy milk"}, true)
	expect(t, code, stdout, stderr, exitcode.Success, "", "")
}

func TestAddCommand_TitleRequired(t *testing.T) {
	for _, args := range [][]string{nil, {""}, {"  "}} {
		app, svc, _ := newApp(t)
		stdout, stderr, code := runCommand(t, &commands.AddCmd{}, app, args, false)
		expect(t, code, stdout, stderr, exitcode.UserError, "", "error: title required\n")
		if svc.TotalCalls() != 0 {
			t.Errorf("args %q: expected no backend calls, got %d", args, svc.TotalCalls())
		}
	}
}

func TestAddCommand_BackendError(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.CreateTaskErr = errors.New("boom")

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, app, []string{"x"}, false)
	expect(t, code, stdout, stderr, exitcode.BackendError, "", "error: backend error: boom\n")
	if svc.Calls("ListTasks") != 0 {
		t.Error("failed create must not refetch")
	}
}

// Tests for edit command
func TestEditCommand(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", true)
	id := svc.AddTask("Walk dog", false)

	stdout, stderr, code := runCommand(t, &commands.EditCmd{}, app, []string{"2", "Walk", "cat"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")

	updates := svc.Updates()
	if len(updates) != 1 || updates[0] != (testutil.Update{ID: id, Title: "Walk cat", IsDone: false}) {
		t.Errorf("unexpected updates: %+v", updates)
	}
}

func TestEditCommand_ByID(t *testing.T) {
	app, svc, _ := newApp(t)
	id := svc.AddTask("Buy milk", true)

	stdout, stderr, code := runCommand(t, &commands.EditCmd{}, app, []string{id, "Buy oat milk"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")

	updates := svc.Updates()
	if len(updates) != 1 || updates[0] != (testutil.Update{ID: id, Title: "Buy oat milk", IsDone: true}) {
		t.Errorf("unexpected updates: %+v", updates)
	}
}

func TestEditCommand_TitleRequired(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)

	stdout, stderr, code := runCommand(t, &commands.EditCmd{}, app, []string{"1"}, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: title required\n")
	if svc.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", svc.TotalCalls())
	}
}

// Tests for done and undo commands
func TestDoneCommand(t *testing.T) {
	app, svc, _ := newApp(t)
	id := svc.AddTask("Buy milk", false)

	stdout, stderr, code := runCommand(t, commands.NewDoneCmd(true), app, []string{"1"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")

	updates := svc.Updates()
	if len(updates) != 1 || updates[0] != (testutil.Update{ID: id, Title: "Buy milk", IsDone: true}) {
		t.Errorf("unexpected updates: %+v", updates)
	}
}

func TestUndoCommand(t *testing.T) {
	app, svc, _ := newApp(t)
	id := svc.AddTask("Buy milk", true)

	stdout, stderr, code := runCommand(t, commands.NewDoneCmd(false), app, []string{"1"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")

	updates := svc.Updates()
	if len(updates) != 1 || updates[0] != (testutil.Update{ID: id, Title: "Buy milk", IsDone: false}) {
		t.Errorf("unexpected updates: %+v", updates)
	}
}

func TestDoneCommand_RefRequired(t *testing.T) {
	app, _, _ := newApp(t)
	stdout, stderr, code := runCommand(t, commands.NewDoneCmd(true), app, nil, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: task reference required\n")
}

func TestDoneCommand_OutOfRange(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)

	stdout, stderr, code := runCommand(t, commands.NewDoneCmd(true), app, []string{"2"}, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: task number out of range: 2\n")
	if svc.Calls("UpdateTask") != 0 {
		t.Error("expected no update")
	}
}

func TestDoneCommand_Zero(t *testing.T) {
	app, svc, _ := newApp(t)
	stdout, stderr, code := runCommand(t, commands.NewDoneCmd(true), app, []string{"0"}, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: task number out of range: 0\n")
	if svc.TotalCalls() != 0 {
		t.Error("expected no backend calls")
	}
}

func TestDoneCommand_UnknownID(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)

	stdout, stderr, code := runCommand(t, commands.NewDoneCmd(true), app, []string{"nope"}, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: task not found: nope\n")
}

func TestDoneCommand_UpdateFails(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)
	svc.UpdateTaskErr = errors.New("boom")

	stdout, stderr, code := runCommand(t, commands.NewDoneCmd(true), app, []string{"1"}, false)
	expect(t, code, stdout, stderr, exitcode.BackendError, "", "error: backend error: boom\n")
	if svc.Tasks()[0].IsDone {
		t.Error("task must stay open")
	}
}

// Tests for rm command
func TestRmCommand(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)
	svc.AddTask("Walk dog", false)

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, app, []string{"1"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")

	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Walk dog" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

// Tests for show command
func TestShowCommand(t *testing.T) {
	app, svc, _ := newApp(t)
	id := svc.AddTask("Buy milk", true)

	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, app, []string{"1"}, false)
	if code != exitcode.Success || stderr != "" {
		t.Fatalf("unexpected result %d %q", code, stderr)
	}
	if !strings.Contains(stdout, "id:       "+id+"\n") || !strings.Contains(stdout, "done:     true\n") {
		t.Errorf("unexpected output %q", stdout)
	}
}

// Tests for search command
func TestSearchCommand(t *testing.T) {
	app, svc, _ := newApp(t)
	svc.AddTask("Buy milk", false)
	svc.AddTask("Walk dog", false)
	svc.AddTask("buy bread", true)

	stdout, stderr, code := runCommand(t, &commands.SearchCmd{}, app, []string{"BUY"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "   1  [ ] Buy milk\n   2  [x] buy bread\n", "")
	if svc.Calls("SearchTasks") != 1 || svc.Calls("ListTasks") != 0 {
		t.Error("search must go to the server only")
	}
	if app.Remote.Active() {
		t.Error("remote search should be deactivated afterwards")
	}
}

func TestSearchCommand_QueryRequired(t *testing.T) {
	app, svc, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.SearchCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: query required\n")
	if svc.TotalCalls() != 0 {
		t.Error("expected no backend calls")
	}
}

// Tests for account commands
func TestMeCommand(t *testing.T) {
	app, _, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.MeCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success,
		"name:     alice\nid:       user-1\ncreated:  2024-01-02T03:04:05Z\nupdated:  2024-01-02T03:04:05Z\n", "")
}

func TestRenameCommand(t *testing.T) {
	app, svc, _ := newApp(t)

	stdout, stderr, code := runCommand(t, &commands.RenameCmd{}, app, []string{"Alice", "B"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")
	if app.Profile.User().Name != "Alice B" || svc.Calls("UpdateName") != 1 {
		t.Errorf("rename not applied: %+v", app.Profile.User())
	}
}

func TestRenameCommand_NameRequired(t *testing.T) {
	app, svc, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.RenameCmd{}, app, []string{" "}, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: name required\n")
	if svc.TotalCalls() != 0 {
		t.Error("expected no backend calls")
	}
}

func TestPasswdCommand(t *testing.T) {
	app, svc, _ := newApp(t)
	p := &scripted{answers: []string{"hunter2", "hunter2"}}
	app.Prompter = p

	stdout, stderr, code := runCommand(t, &commands.PasswdCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")
	if svc.Calls("UpdatePassword") != 1 {
		t.Error("expected password update")
	}
	if len(p.labels) != 2 {
		t.Errorf("expected 2 prompts, got %q", p.labels)
	}
}

func TestPasswdCommand_Mismatch(t *testing.T) {
	app, svc, _ := newApp(t)
	app.Prompter = &scripted{answers: []string{"hunter2", "hunter3"}}

	stdout, stderr, code := runCommand(t, &commands.PasswdCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: passwords do not match\n")
	if svc.TotalCalls() != 0 {
		t.Error("expected no backend calls")
	}
}

func TestQuitCommand_RequiresYes(t *testing.T) {
	app, svc, _ := newApp(t)
	stdout, stderr, code := runCommand(t, &commands.QuitCmd{}, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: refusing to delete account without --yes\n")
	if svc.TotalCalls() != 0 {
		t.Error("expected no backend calls")
	}
}

func TestQuitCommand(t *testing.T) {
	app, svc, jar := newApp(t)
	storeSession(t, jar)
	svc.AddTask("Buy milk", false)

	cmd := &commands.QuitCmd{}
	cmd.SetYes(true)
	stdout, stderr, code := runCommand(t, cmd, app, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")
	if svc.Calls("Quit") != 1 || len(svc.Tasks()) != 0 {
		t.Error("account not deleted")
	}
	if app.Session.LoggedIn() {
		t.Error("session should be forgotten")
	}
}
