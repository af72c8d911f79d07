// Package upload validates a single selected file and plays the progress
// sequence before handing the accepted file to its owner.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"careerflow/internal/application/form"
)

const bytesPerMB = 1_048_576

var (
	ErrFileTooLarge         = errors.New("file too large")
	ErrFileTypeNotSupported = errors.New("file type not supported")
)

// RejectedError carries the message shown to the applicant alongside the
// sentinel describing which constraint failed.
type RejectedError struct {
	Reason  error
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Unwrap() error { return e.Reason }

// Control is the file upload contract of one document slot.
type Control struct {
	AcceptedTypes []string
	MaxSizeMB     int

	// Progress drives the cosmetic progress sequence. Zero value uses the
	// defaults on the real clock.
	Progress Progress
	// OnProgress observes every progress value; optional.
	OnProgress func(percent int)
}

// Validate runs the size check and then the extension check.
func (c *Control) Validate(f *form.File) error {
	if f == nil {
		return &RejectedError{Reason: ErrFileTypeNotSupported, Message: "No file selected"}
	}
	if f.Size > int64(c.MaxSizeMB)*bytesPerMB {
		return &RejectedError{
			Reason:  ErrFileTooLarge,
			Message: fmt.Sprintf("File size must be less than %dMB", c.MaxSizeMB),
		}
	}
	if !c.accepts(Extension(f.Name)) {
		return &RejectedError{
			Reason:  ErrFileTypeNotSupported,
			Message: "File type not supported. Accepted types: " + c.AcceptedTypesLabel(),
		}
	}
	return nil
}

// Select validates f, plays the progress sequence and then calls onFileSelect
// exactly once. On rejection or cancellation onFileSelect is not called.
func (c *Control) Select(ctx context.Context, f *form.File, onFileSelect func(*form.File)) error {
	if err := c.Validate(f); err != nil {
		return err
	}
	if err := c.Progress.Run(ctx, c.OnProgress); err != nil {
		return err
	}
	if onFileSelect != nil {
		onFileSelect(f)
	}
	return nil
}

// Remove clears the slot by calling onFileSelect(nil) once.
func (c *Control) Remove(onFileSelect func(*form.File)) {
	if onFileSelect != nil {
		onFileSelect(nil)
	}
}

// AcceptedTypesLabel is the comma separated list shown next to the drop zone.
func (c *Control) AcceptedTypesLabel() string {
	return strings.Join(c.AcceptedTypes, ", ")
}

func (c *Control) accepts(ext string) bool {
	if ext == "" {
		return false
	}
	for _, t := range c.AcceptedTypes {
		if strings.EqualFold(t, ext) {
			return true
		}
	}
	return false
}

// Extension returns everything after the last dot, lower-cased, with a leading
// dot. Names without a dot have no extension.
func Extension(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i:])
}

// Clock abstracts waiting so the progress sequence can run on a fake clock.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock waits on wall time.
func RealClock() Clock { return realClock{} }

const (
	DefaultProgressStep  = 10
	DefaultProgressDelay = 100 * time.Millisecond
)

// Progress counts from 0 to 100 in fixed increments with a fixed delay between
// values. It reflects nothing about bytes transferred.
type Progress struct {
	Step  int
	Delay time.Duration
	Clock Clock
}

// Run reports every value to observe. It returns ctx.Err() if the context ends
// before 100 is reached.
func (p Progress) Run(ctx context.Context, observe func(int)) error {
	step, delay, clock := p.Step, p.Delay, p.Clock
	if step <= 0 {
		step = DefaultProgressStep
	}
	if delay <= 0 {
		delay = DefaultProgressDelay
	}
	if clock == nil {
		clock = realClock{}
	}

	for pct := 0; ; pct += step {
		if pct > 100 {
			pct = 100
		}
		if observe != nil {
			observe(pct)
		}
		if pct == 100 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(delay):
		}
	}
}
