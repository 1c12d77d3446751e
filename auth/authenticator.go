package auth

import (
	"context"
	"fmt"

	"github.com/libopenstorage/keymaster"
	"github.com/sirupsen/logrus"
)

// Outcome is the single decision produced by Authenticate.
type Outcome struct {
	Succeeded bool
	// Diagnostic explains a failure. Empty on success.
	Diagnostic string
}

// Err converts a failed outcome into an authentication error. It returns nil
// on success.
func (o Outcome) Err() error {
	if o.Succeeded {
		return nil
	}
	return keymaster.AuthenticationError("authentication failed or was cancelled",
		fmt.Errorf("%s", o.Diagnostic))
}

type state int

const (
	stateStart state = iota
	stateTryStrong
	stateTryWeak
	stateDone
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateTryStrong:
		return "try-strong"
	case stateTryWeak:
		return "try-weak"
	default:
		return "done"
	}
}

// Authenticator decides whether the caller may proceed. It holds no state
// between calls; every call issues fresh challenges.
type Authenticator struct {
	platform Platform
	log      logrus.FieldLogger
}

// NewAuthenticator returns an Authenticator backed by p.
func NewAuthenticator(p Platform, log logrus.FieldLogger) *Authenticator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Authenticator{platform: p, log: log}
}

type result struct {
	ok  bool
	err error
}

// Authenticate runs the strong method if it is evaluable, falling back to
// the weak method when the strong one is unavailable or fails. Cancelling
// ctx while a challenge is pending fails the authentication.
func (a *Authenticator) Authenticate(ctx context.Context, reason string) Outcome {
	var (
		current   = stateStart
		strongErr error
		outcome   Outcome
	)

	for current != stateDone {
		next := stateDone
		switch current {
		case stateStart:
			if err := a.platform.CanEvaluate(Strong); err == nil {
				next = stateTryStrong
			} else if weakErr := a.platform.CanEvaluate(Weak); weakErr == nil {
				a.log.WithError(err).Debug("Biometric authentication not available")
				next = stateTryWeak
			} else {
				outcome.Diagnostic = fmt.Sprintf("no authentication method available: %v", weakErr)
			}

		case stateTryStrong:
			ok, err := a.evaluate(ctx, Strong, reason)
			if ok {
				outcome.Succeeded = true
				break
			}
			strongErr = err
			if ctx.Err() != nil {
				outcome.Diagnostic = fmt.Sprintf("authentication cancelled: %v", err)
				break
			}
			if a.platform.CanEvaluate(Weak) == nil {
				next = stateTryWeak
			} else {
				outcome.Diagnostic = fmt.Sprintf("fallback authentication not available: %v", strongErr)
			}

		case stateTryWeak:
			ok, err := a.evaluate(ctx, Weak, reason)
			if ok {
				outcome.Succeeded = true
			} else if ctx.Err() != nil {
				outcome.Diagnostic = fmt.Sprintf("authentication cancelled: %v", err)
			} else {
				outcome.Diagnostic = fmt.Sprintf("authentication failed: %v", err)
			}
		}

		a.log.WithFields(logrus.Fields{
			"from": current.String(),
			"to":   next.String(),
		}).Debug("Authentication state transition")
		current = next
	}

	if !outcome.Succeeded {
		a.log.WithField("diagnostic", outcome.Diagnostic).Debug("Authentication failed")
	}
	return outcome
}

// evaluate issues one challenge and suspends until the platform replies or
// ctx is done.
func (a *Authenticator) evaluate(ctx context.Context, m Method, reason string) (bool, error) {
	done := make(chan result, 1)
	a.platform.Evaluate(Challenge{
		Method:        m,
		Reason:        reason,
		ReuseDuration: 0,
	}, func(ok bool, err error) {
		select {
		case done <- result{ok: ok, err: err}:
		default:
		}
	})

	select {
	case r := <-done:
		if !r.ok && r.err == nil {
			r.err = fmt.Errorf("%v authentication failed", m)
		}
		if !r.ok {
			a.log.WithField("method", m.String()).WithError(r.err).Debug("Evaluation failed")
		}
		return r.ok, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
