// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskman/internal/service"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}\n" (4-wide right-aligned number, two spaces,
// done mark, title). Open tasks show "[ ]".
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, doneMark(task.IsDone), normalizeTitle(task.Title))
}

// FormatTaskDetail formats one task with its server fields, for edit and
// done confirmations in verbose mode.
func FormatTaskDetail(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "id:       %s\n", task.ID)
	fmt.Fprintf(w, "title:    %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "done:     %t\n", task.IsDone)
	fmt.Fprintf(w, "created:  %s\n", formatTime(task.CreatedAt))
}

// FormatUser formats the signed-in user for the me command.
func FormatUser(w io.Writer, user service.User) {
	fmt.Fprintf(w, "name:     %s\n", user.Name)
	fmt.Fprintf(w, "id:       %s\n", user.ID)
	fmt.Fprintf(w, "created:  %s\n", formatTime(user.CreatedAt))
	fmt.Fprintf(w, "updated:  %s\n", formatTime(user.UpdatedAt))
}

func doneMark(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
