// Package checkpoint decorates errors with caller information so that a
// failing call chain reads like a lightweight stack trace. Every error
// attached to a checkpoint stays visible to errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

type checkpoint struct {
	err  error
	prev error

	haveCaller bool
	file       string
	line       int
}

func newCheckpoint(prev, err error) error {
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:  err,
		prev: prev,

		haveCaller: ok,
		file:       filepath.Base(file),
		line:       line,
	}
}

// From wraps err in a new checkpoint carrying the caller's file and line.
// Returns nil for nil. io.EOF and io.ErrUnexpectedEOF pass through
// unwrapped because many callers compare them with ==.
// See https://github.com/golang/go/issues/39155.
func From(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF || err == nil {
		return err
	}

	return newCheckpoint(err, nil)
}

// Wrap records a checkpoint for prev and attaches err as an additional
// marker error. Returns nil if prev is nil, so call sites can wrap
// unconditionally:
//  return checkpoint.Wrap(device.Write(lba, data), ErrDevice)
// Both prev and err remain matchable through errors.Is.
func Wrap(prev, err error) error {
	if prev == io.EOF {
		return io.EOF
	}
	if prev == nil {
		return nil
	}

	return newCheckpoint(prev, err)
}

func (c *checkpoint) Error() string {
	prevText := c.prev.Error()
	if _, ok := c.prev.(*checkpoint); !ok {
		prevText = "File: unknown\n\t" + strings.ReplaceAll(prevText, "\n", "\n\t")
	}

	where := "unknown"
	if c.haveCaller {
		where = fmt.Sprintf("%s:%d", c.file, c.line)
	}

	if c.err == nil {
		return fmt.Sprintf("File: %s\n%s", where, prevText)
	}

	return fmt.Sprintf("File: %s\n\t%v\n%s", where, c.err, prevText)
}

func (c *checkpoint) Unwrap() error {
	return c.prev
}

func (c *checkpoint) Is(target error) bool {
	return c.err != nil && errors.Is(c.err, target)
}

func (c *checkpoint) As(target interface{}) bool {
	return c.err != nil && errors.As(c.err, target)
}
