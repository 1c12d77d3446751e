// Package passcode implements the knowledge factor authentication method: a
// passcode read from the controlling terminal and checked against a bcrypt
// hash.
package passcode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/libopenstorage/keymaster/auth"
)

const (
	bcryptCost = 12
	// MinLength is the shortest passcode accepted by Hash.
	MinLength = 4

	ttyPath = "/dev/tty"
)

var (
	// ErrNotConfigured is returned when no passcode hash is set.
	ErrNotConfigured = errors.New("no passcode configured")
	// ErrNoTerminal is returned when there is no terminal to prompt on.
	ErrNoTerminal = errors.New("no terminal available for passcode prompt")
	// ErrIncorrect is returned when the passcode does not match.
	ErrIncorrect = errors.New("incorrect passcode")
	// ErrTooShort is returned by Hash for passcodes under MinLength.
	ErrTooShort = fmt.Errorf("passcode must be at least %d characters", MinLength)
	// ErrMismatch is returned by ReadNew when the confirmation differs.
	ErrMismatch = errors.New("passcodes do not match")
)

// Terminal reads a line without echoing it.
type Terminal interface {
	ReadPassword() ([]byte, error)
	Close() error
}

// Opener returns the terminal to prompt on.
type Opener func() (Terminal, error)

type tty struct {
	f *os.File
}

func (t *tty) ReadPassword() ([]byte, error) {
	return term.ReadPassword(int(t.f.Fd()))
}

func (t *tty) Close() error {
	return t.f.Close()
}

// OpenTTY opens the controlling terminal of the process.
func OpenTTY() (Terminal, error) {
	f, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}
	if !term.IsTerminal(int(f.Fd())) {
		f.Close()
		return nil, ErrNoTerminal
	}
	return &tty{f: f}, nil
}

// Hash returns the bcrypt hash to store in the configuration.
func Hash(passcode []byte) (string, error) {
	if len(passcode) < MinLength {
		return "", ErrTooShort
	}
	b, err := bcrypt.GenerateFromPassword(passcode, bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Evaluator is the auth.Evaluator for the weak method.
type Evaluator struct {
	hash   []byte
	prompt io.Writer
	open   Opener
}

// New returns an Evaluator checking against hash. Prompts are written to
// prompt. A nil opener uses OpenTTY.
func New(hash string, prompt io.Writer, open Opener) *Evaluator {
	if open == nil {
		open = OpenTTY
	}
	return &Evaluator{
		hash:   []byte(hash),
		prompt: prompt,
		open:   open,
	}
}

func (e *Evaluator) CanEvaluate() error {
	if len(e.hash) == 0 {
		return ErrNotConfigured
	}
	if _, err := bcrypt.Cost(e.hash); err != nil {
		return fmt.Errorf("invalid passcode hash: %v", err)
	}
	t, err := e.open()
	if err != nil {
		return err
	}
	return t.Close()
}

// Evaluate prompts for the passcode. Nothing is cached: every challenge
// reads the passcode again whatever the challenge's reuse duration.
func (e *Evaluator) Evaluate(c auth.Challenge, reply auth.Reply) {
	go func() {
		reply(e.evaluate(c.Reason))
	}()
}

func (e *Evaluator) evaluate(reason string) (bool, error) {
	t, err := e.open()
	if err != nil {
		return false, err
	}
	defer t.Close()

	fmt.Fprintf(e.prompt, "%s\nPasscode: ", reason)
	input, err := t.ReadPassword()
	fmt.Fprintln(e.prompt)
	if err != nil {
		return false, fmt.Errorf("failed to read passcode: %v", err)
	}
	if len(input) == 0 {
		return false, auth.ErrUserCancelled
	}
	if err := bcrypt.CompareHashAndPassword(e.hash, input); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, ErrIncorrect
		}
		return false, err
	}
	return true, nil
}

// ReadNew prompts for a new passcode twice and returns it once both entries
// match.
func ReadNew(prompt io.Writer, open Opener) ([]byte, error) {
	if open == nil {
		open = OpenTTY
	}
	t, err := open()
	if err != nil {
		return nil, err
	}
	defer t.Close()

	fmt.Fprint(prompt, "New passcode: ")
	first, err := t.ReadPassword()
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(prompt, "Confirm passcode: ")
	second, err := t.ReadPassword()
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(first, second) {
		return nil, ErrMismatch
	}
	if len(first) < MinLength {
		return nil, ErrTooShort
	}
	return first, nil
}
