// Package common defines shared sentinel errors used across the engine,
// storage and dispatch layers. Callers should use errors.Is to match these
// values; concrete errors are wrapped with fmt.Errorf("...: %w", ...).
package common

import "errors"

var (
	// Input errors. Reported to the caller, state is left unchanged.
	ErrValidation = errors.New("validation error")

	// Operation is not legal in the current phase.
	ErrIllegalTransition = errors.New("illegal transition")
	ErrNotArmed          = errors.New("check-in clock is not armed")

	// Storage errors.
	ErrPersistence  = errors.New("persistence error")
	ErrCorruptState = errors.New("corrupt saved state")

	// Notification channel errors. Never fatal for the engine.
	ErrDispatch = errors.New("dispatch error")
)
