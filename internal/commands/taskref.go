package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"taskman/internal/service"
	"taskman/internal/tasklist"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the listing, 0 if ID is set
	ID  string // server task ID
}

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrTaskOutOfRange indicates a position past the end of the listing.
	ErrTaskOutOfRange = errors.New("task number out of range")
)

// ParseTaskRef parses a task reference from the first argument.
//
// Parsing rules:
//  1. No argument → error: task reference required
//  2. All digits → 1-based position as printed by ls
//  3. Anything else → a task ID
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || args[0] == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	first := args[0]
	if isAllDigits(first) {
		num, err := strconv.Atoi(first)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("%w: %d", ErrTaskOutOfRange, num)
		}
		return TaskRef{Num: num}, nil
	}
	return TaskRef{ID: first}, nil
}

// ResolveTask fetches the collection and returns the task ref points at.
func ResolveTask(ctx context.Context, tasks *tasklist.Controller, ref TaskRef) (service.Task, error) {
	list, err := tasks.List(ctx)
	if err != nil {
		return service.Task{}, err
	}

	if ref.ID != "" {
		task, ok := tasks.Find(ref.ID)
		if !ok {
			return service.Task{}, fmt.Errorf("%w: %s", tasklist.ErrUnknownTask, ref.ID)
		}
		return task, nil
	}

	if ref.Num > len(list) {
		return service.Task{}, fmt.Errorf("%w: %d", ErrTaskOutOfRange, ref.Num)
	}
	return list[ref.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
