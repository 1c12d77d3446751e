// Package auth negotiates the authentication challenge that gates every
// vault operation. It tries the strong (biometric) method first and falls
// back to the weak (knowledge factor) method.
package auth

import (
	"errors"
	"time"
)

// Method is an authentication method offered by the platform.
type Method int

const (
	// Strong is a biometric challenge requiring live user presence.
	Strong Method = iota
	// Weak is a knowledge factor challenge such as a passcode.
	Weak
)

func (m Method) String() string {
	switch m {
	case Strong:
		return "biometric"
	case Weak:
		return "passcode"
	default:
		return "unknown"
	}
}

var (
	// ErrMethodUnavailable is returned by CanEvaluate when the platform has no
	// evaluator for a method.
	ErrMethodUnavailable = errors.New("authentication method not available")
	// ErrUserCancelled is reported when the user dismisses the prompt.
	ErrUserCancelled = errors.New("user cancelled authentication")
)

// Challenge describes one authentication request issued to the platform.
type Challenge struct {
	Method Method
	// Reason is shown to the user by the prompt.
	Reason string
	// ReuseDuration is how long a previous successful evaluation may be
	// honoured instead of prompting again. Always zero when issued by an
	// Authenticator.
	ReuseDuration time.Duration
}

// Reply receives the result of an evaluation. It is called exactly once.
type Reply func(ok bool, err error)

// Platform is the host authentication service.
type Platform interface {
	// CanEvaluate returns nil when the method is usable given the current
	// hardware and enrollment state, or the reason it is not.
	CanEvaluate(m Method) error
	// Evaluate starts the challenge and delivers its result to reply,
	// possibly from another goroutine.
	Evaluate(c Challenge, reply Reply)
}

// Evaluator implements a single authentication method.
type Evaluator interface {
	CanEvaluate() error
	Evaluate(c Challenge, reply Reply)
}

// HostPlatform routes each method to its evaluator. A nil evaluator makes
// the method unavailable.
type HostPlatform struct {
	Strong Evaluator
	Weak   Evaluator
}

func (h *HostPlatform) evaluator(m Method) Evaluator {
	switch m {
	case Strong:
		return h.Strong
	case Weak:
		return h.Weak
	}
	return nil
}

func (h *HostPlatform) CanEvaluate(m Method) error {
	e := h.evaluator(m)
	if e == nil {
		return ErrMethodUnavailable
	}
	return e.CanEvaluate()
}

func (h *HostPlatform) Evaluate(c Challenge, reply Reply) {
	e := h.evaluator(c.Method)
	if e == nil {
		reply(false, ErrMethodUnavailable)
		return
	}
	e.Evaluate(c, reply)
}

// StrongOnly restricts p to the strong method. The weak method always
// reports ErrMethodUnavailable.
func StrongOnly(p Platform) Platform {
	return strongOnly{p}
}

type strongOnly struct {
	Platform
}

func (s strongOnly) CanEvaluate(m Method) error {
	if m != Strong {
		return ErrMethodUnavailable
	}
	return s.Platform.CanEvaluate(m)
}

func (s strongOnly) Evaluate(c Challenge, reply Reply) {
	if c.Method != Strong {
		reply(false, ErrMethodUnavailable)
		return
	}
	s.Platform.Evaluate(c, reply)
}
