package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/mindsync/internal/model"
)

type Type string

const (
	TypeAdd     Type = "add"
	TypeDelete  Type = "delete"
	TypeRefresh Type = "refresh"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs holds the raw date and time tokens. Date may also be "today" or
// "tomorrow", and Time may be "+<duration>" relative to now; Resolve turns
// them into concrete values.
type AddArgs struct {
	Date        string
	Time        string
	Priority    model.Priority
	Title       string
	Description string
}

type DeleteArgs struct {
	Target string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Delete *DeleteArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	rest := strings.TrimSpace(raw[len(parts[0]):])

	switch Type(head) {
	case TypeAdd, "a":
		return parseAdd(input, rest)
	case TypeDelete, "rm", "del":
		return parseDelete(input, parts[1:])
	case TypeRefresh, "r":
		return Command{Type: TypeRefresh, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw, rest string) (Command, error) {
	description := ""
	if idx := strings.Index(rest, " -- "); idx >= 0 {
		description = strings.TrimSpace(rest[idx+4:])
		rest = rest[:idx]
	}
	args := strings.Fields(rest)
	if len(args) < 3 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "usage: add <date> <time> [p1|p2|p3] <title> [-- description]"}
	}

	add := &AddArgs{Date: args[0], Time: args[1], Priority: model.PriorityMedium, Description: description}
	titleParts := args[2:]
	if p, err := model.ParsePriority(titleParts[0]); err == nil && isPriorityToken(titleParts[0]) {
		add.Priority = p
		titleParts = titleParts[1:]
	}
	add.Title = strings.TrimSpace(strings.Join(titleParts, " "))
	if add.Title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: add}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "delete requires a reminder id"}
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{Target: strings.ToLower(args[0])}}, nil
}

// Bare digits are part of the title; only "p1".."p3" set the priority.
func isPriorityToken(token string) bool {
	token = strings.ToLower(token)
	return len(token) == 2 && token[0] == 'p'
}

// Resolve returns the date and time fields as stored on a reminder.
func (a AddArgs) Resolve(now time.Time) (date, clock string, err error) {
	if strings.HasPrefix(a.Time, "+") {
		d, perr := time.ParseDuration(a.Time[1:])
		if perr != nil || d <= 0 {
			return "", "", &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid relative time %q", a.Time)}
		}
		due := now.Add(d)
		return due.Format(model.DateLayout), due.Format("15:04:05"), nil
	}

	switch strings.ToLower(a.Date) {
	case "today":
		date = now.Format(model.DateLayout)
	case "tomorrow":
		date = now.AddDate(0, 0, 1).Format(model.DateLayout)
	default:
		if _, perr := time.Parse(model.DateLayout, a.Date); perr != nil {
			return "", "", &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", a.Date)}
		}
		date = a.Date
	}

	tm, perr := model.ParseClock(a.Time)
	if perr != nil {
		return "", "", &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid time %q, want HH:MM[:SS]", a.Time)}
	}
	return date, tm.Format("15:04:05"), nil
}
