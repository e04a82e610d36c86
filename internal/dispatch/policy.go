package dispatch

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/safecheck/internal/logging"
)

// FailurePolicy is invoked with an Outcome whose Err is non-nil. It must not
// block; the engine has already moved to the alert-fired phase.
type FailurePolicy func(ctx context.Context, o Outcome)

const (
	PolicyWarn   = "warn"
	PolicyIgnore = "ignore"
)

// WarnPolicy logs failed channels at warn level.
func WarnPolicy(l logging.Logger) FailurePolicy {
	return func(ctx context.Context, o Outcome) {
		l.Warn(ctx, "alert dispatch failed", "alert_id", o.AlertID, "error", o.Err(), "delivered", o.Delivered())
	}
}

// IgnorePolicy logs failed channels at debug level only.
func IgnorePolicy(l logging.Logger) FailurePolicy {
	return func(ctx context.Context, o Outcome) {
		l.Debug(ctx, "alert dispatch failed", "alert_id", o.AlertID, "error", o.Err())
	}
}

// PolicyByName maps a config value to a policy. hook, if non-nil, is called
// after the named policy.
func PolicyByName(name string, l logging.Logger, hook FailurePolicy) (FailurePolicy, error) {
	var base FailurePolicy
	switch name {
	case PolicyWarn, "":
		base = WarnPolicy(l)
	case PolicyIgnore:
		base = IgnorePolicy(l)
	default:
		return nil, fmt.Errorf("unknown dispatch failure policy %q", name)
	}
	if hook == nil {
		return base, nil
	}
	return func(ctx context.Context, o Outcome) {
		base(ctx, o)
		hook(ctx, o)
	}, nil
}
