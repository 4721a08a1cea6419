package engine

import (
	"errors"
	"fmt"
)

// ConfigError reports a defect in the pipeline specification itself:
// an unknown operation, a reference to an undeclared dataset, or a step
// missing a required key. It is always fatal; the run aborts with no
// partial output.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// Configf builds a ConfigError from a format string.
func Configf(format string, a ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, a...)}
}

// IsConfig reports whether err is or wraps a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ShapeError reports input data whose structure cannot be loaded into a
// dataset, such as an inline source whose data is not an array. Like
// ConfigError it is fatal.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string { return e.Msg }

// Shapef builds a ShapeError from a format string.
func Shapef(format string, a ...any) error {
	return &ShapeError{Msg: fmt.Sprintf(format, a...)}
}

// IsShape reports whether err is or wraps a ShapeError.
func IsShape(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// ErrCoercion marks a present value that could not be coerced for a
// numeric comparison or accumulation. Runs only see it under the strict
// value policy; the lenient default absorbs the miss and keeps going.
var ErrCoercion = errors.New("value coercion miss")
