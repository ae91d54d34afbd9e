package domain

import (
	"errors"
	"fmt"
)

// Failure kinds reported by the engine. Match with errors.Is.
var (
	// ErrInputValidation is returned for out-of-range or malformed input fields.
	// It is always raised before any ephemeris computation.
	ErrInputValidation = errors.New("input validation failed")

	// ErrOutOfRange is returned when an instant lies outside the ephemeris span.
	ErrOutOfRange = errors.New("instant outside ephemeris range")

	// ErrInvalidAscendant is returned when the ascendant cannot be resolved.
	ErrInvalidAscendant = errors.New("ascendant not resolvable")

	// ErrOutOfCoverage is returned when a dasha lookup instant falls outside
	// the computed 120-year span.
	ErrOutOfCoverage = errors.New("instant outside dasha coverage")
)

// Stage names the computation step that failed.
type Stage string

// Stage constants.
const (
	StageValidation Stage = "validation"
	StageEphemeris  Stage = "ephemeris"
	StageAyanamsa   Stage = "ayanamsa"
	StageChart      Stage = "chart"
	StageDasha      Stage = "dasha"
	StageTransit    Stage = "transit"
	StageGeocoding  Stage = "geocoding"
)

// Error is a typed engine failure identifying the stage and the failure kind.
type Error struct {
	Kind  error // one of the Err* sentinels
	Stage Stage
	Err   error // underlying detail, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
}

// Unwrap exposes both the kind and the detail to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a typed failure.
func NewError(kind error, stage Stage, detail error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: detail}
}

// Errorf builds a typed failure with a formatted detail message.
func Errorf(kind error, stage Stage, format string, args ...any) *Error {
	return &Error{Kind: kind, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// StageOf returns the failing stage of err, or "" if err is not an engine failure.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// KindOf returns the failure kind of err, or nil if err is not an engine failure.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
