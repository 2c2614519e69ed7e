// Package errcode defines the stable error codes reported by the
// temperature pipeline.
package errcode

import "errors"

// Code is a stable error identifier. It is comparable and implements error.
type Code string

func (c Code) Error() string { return string(c) }

const (
	OK Code = "ok"

	// Startup codes. The pipeline cannot derive a model after either of these.
	CalibrationUnavailable Code = "calibration_unavailable"
	DegenerateCalibration  Code = "degenerate_calibration"

	// Per-iteration codes. The sampling loop reports them and carries on.
	InvalidReference  Code = "invalid_reference"
	AcquisitionFailed Code = "acquisition_failed"

	Error Code = "error" // generic fallback
)

// E attaches an operation, a message and a cause to a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

// New returns an *E for code c raised by op.
func New(c Code, op, msg string) *E {
	return &E{C: c, Op: op, Msg: msg}
}

// Wrap returns an *E for code c raised by op with cause err.
func Wrap(c Code, op string, err error) *E {
	return &E{C: c, Op: op, Err: err}
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is match an *E against its bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// Fatal reports whether c stops the pipeline at startup.
func Fatal(c Code) bool {
	return c == CalibrationUnavailable || c == DegenerateCalibration
}
