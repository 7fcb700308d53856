// Package errl annotates errors with the location where they were created or
// propagated, so that a single log line is enough to find the failing call site.
package errl

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Error annotates err with the location of the caller. It returns nil if err is nil.
func Error(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, location(2))
}

// Errorf formats according to a format specifier (supporting %w) and annotates
// the result with the location of the caller.
func Errorf(format string, a ...any) error {
	return errors.WithMessage(fmt.Errorf(format, a...), location(2))
}

// location returns "file.go:line (func)" for the given stack depth
func location(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}

	name := "?"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
	}

	return fmt.Sprintf("%s:%d (%s)", filepath.Base(file), line, name)
}
