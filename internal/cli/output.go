package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"lifelines-backend/internal/pkg/apperr"
	syncengine "lifelines-backend/internal/sync"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation was refused
	ExitCommandError = 2 // bad flags, unreadable files, local store errors
)

// ExitError carries the process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Other errors are ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// failure turns an engine error into a refusal with the server's message.
func failure(err error) error {
	return WrapExitError(ExitFailure, string(apperr.KindOf(err)), errors.New(apperr.Message(err)))
}

type printer struct {
	format string
	w      io.Writer
}

func (o *RootOptions) printer(w io.Writer) *printer {
	return &printer{format: o.Format, w: w}
}

// value prints v as JSON, or through text in text mode.
func (p *printer) value(v interface{}, text func(w io.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.w)
	return nil
}

// result prints a mutation outcome.
func (p *printer) result(what string, r *syncengine.Result) error {
	return p.value(r, func(w io.Writer) {
		var v struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(r.Data, &v)
		suffix := ""
		if r.PendingSync {
			suffix = " (pending sync)"
		}
		if v.ID != "" {
			fmt.Fprintf(w, "%s %s%s\n", what, v.ID, suffix)
			return
		}
		fmt.Fprintf(w, "%s%s\n", what, suffix)
	})
}
