// Package fake provides a deterministic authentication platform for tests.
package fake

import (
	"sync"

	"github.com/libopenstorage/keymaster/auth"
)

// Result is the scripted behaviour of one method.
type Result struct {
	// Unavailable is returned by CanEvaluate. nil makes the method evaluable.
	Unavailable error
	// Succeed is the evaluation result.
	Succeed bool
	// Err is delivered with a failed evaluation.
	Err error
}

// Platform replies to every challenge from a separate goroutine, the way a
// host authentication service delivers its callbacks.
type Platform struct {
	Strong Result
	Weak   Result

	mu         sync.Mutex
	challenges []auth.Challenge
}

// NewPlatform returns a Platform with both methods evaluable and succeeding.
func NewPlatform() *Platform {
	return &Platform{
		Strong: Result{Succeed: true},
		Weak:   Result{Succeed: true},
	}
}

func (p *Platform) result(m auth.Method) Result {
	if m == auth.Strong {
		return p.Strong
	}
	return p.Weak
}

func (p *Platform) CanEvaluate(m auth.Method) error {
	return p.result(m).Unavailable
}

func (p *Platform) Evaluate(c auth.Challenge, reply auth.Reply) {
	p.mu.Lock()
	p.challenges = append(p.challenges, c)
	p.mu.Unlock()

	r := p.result(c.Method)
	go func() {
		if r.Unavailable != nil {
			reply(false, r.Unavailable)
			return
		}
		reply(r.Succeed, r.Err)
	}()
}

// Challenges returns every challenge issued so far, in order.
func (p *Platform) Challenges() []auth.Challenge {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]auth.Challenge(nil), p.challenges...)
}
