// Package fprint implements the biometric authentication method on top of
// the fprintd daemon, reached over the system D-Bus.
package fprint

import (
	"errors"
	"fmt"
	"io"
	"os/user"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/libopenstorage/keymaster/auth"
)

const (
	busName          = "net.reactivated.Fprint"
	managerPath      = dbus.ObjectPath("/net/reactivated/Fprint/Manager")
	managerInterface = "net.reactivated.Fprint.Manager"
	deviceInterface  = "net.reactivated.Fprint.Device"

	verifyStatusSignal = deviceInterface + ".VerifyStatus"

	// AnyFinger matches against every enrolled finger.
	AnyFinger = "any"

	resultMatch = "verify-match"
)

var (
	// ErrNoDevice is returned when fprintd reports no fingerprint reader.
	ErrNoDevice = errors.New("no fingerprint reader found")
	// ErrNotEnrolled is returned when the user has no enrolled fingerprints.
	ErrNotEnrolled = errors.New("no fingerprints enrolled")
)

// Bus is the subset of *dbus.Conn used by the evaluator.
type Bus interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
}

// Evaluator is the auth.Evaluator for the strong method.
type Evaluator struct {
	bus      Bus
	username string
	finger   string
	prompt   io.Writer
	log      logrus.FieldLogger
}

// Config selects the user and finger to verify.
type Config struct {
	// Username defaults to the current user.
	Username string
	// Finger defaults to AnyFinger.
	Finger string
}

// New connects to the system bus.
func New(cfg Config, prompt io.Writer, log logrus.FieldLogger) (*Evaluator, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %v", err)
	}
	return NewWithBus(conn, cfg, prompt, log), nil
}

// NewWithBus returns an Evaluator talking to fprintd over bus.
func NewWithBus(bus Bus, cfg Config, prompt io.Writer, log logrus.FieldLogger) *Evaluator {
	if cfg.Username == "" {
		if u, err := user.Current(); err == nil {
			cfg.Username = u.Username
		}
	}
	if cfg.Finger == "" {
		cfg.Finger = AnyFinger
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Evaluator{
		bus:      bus,
		username: cfg.Username,
		finger:   cfg.Finger,
		prompt:   prompt,
		log:      log.WithField("method", "fprint"),
	}
}

func (e *Evaluator) device() (dbus.BusObject, dbus.ObjectPath, error) {
	var path dbus.ObjectPath
	err := e.bus.Object(busName, managerPath).
		Call(managerInterface+".GetDefaultDevice", 0).
		Store(&path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return e.bus.Object(busName, path), path, nil
}

// CanEvaluate checks for a reader and at least one enrolled finger.
func (e *Evaluator) CanEvaluate() error {
	dev, _, err := e.device()
	if err != nil {
		return err
	}
	var fingers []string
	err = dev.Call(deviceInterface+".ListEnrolledFingers", 0, e.username).Store(&fingers)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotEnrolled, err)
	}
	if len(fingers) == 0 {
		return ErrNotEnrolled
	}
	return nil
}

// Evaluate claims the reader and waits for the verification to complete.
// fprintd has no notion of a reuse window; every challenge scans again.
func (e *Evaluator) Evaluate(c auth.Challenge, reply auth.Reply) {
	go func() {
		reply(e.verify(c.Reason))
	}()
}

func (e *Evaluator) verify(reason string) (bool, error) {
	dev, path, err := e.device()
	if err != nil {
		return false, err
	}

	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(deviceInterface),
		dbus.WithMatchMember("VerifyStatus"),
	}
	if err := e.bus.AddMatchSignal(match...); err != nil {
		return false, err
	}
	defer e.bus.RemoveMatchSignal(match...)

	signals := make(chan *dbus.Signal, 10)
	e.bus.Signal(signals)
	defer e.bus.RemoveSignal(signals)

	if err := dev.Call(deviceInterface+".Claim", 0, e.username).Err; err != nil {
		return false, fmt.Errorf("failed to claim fingerprint reader: %v", err)
	}
	defer func() {
		if err := dev.Call(deviceInterface+".Release", 0).Err; err != nil {
			e.log.WithError(err).Debug("Failed to release fingerprint reader")
		}
	}()

	if err := dev.Call(deviceInterface+".VerifyStart", 0, e.finger).Err; err != nil {
		return false, fmt.Errorf("failed to start verification: %v", err)
	}
	defer func() {
		if err := dev.Call(deviceInterface+".VerifyStop", 0).Err; err != nil {
			e.log.WithError(err).Debug("Failed to stop verification")
		}
	}()

	fmt.Fprintf(e.prompt, "%s\nScan your finger on the fingerprint reader\n", reason)

	for sig := range signals {
		if sig.Path != path || sig.Name != verifyStatusSignal {
			continue
		}
		var (
			result string
			done   bool
		)
		if err := dbus.Store(sig.Body, &result, &done); err != nil {
			return false, err
		}
		e.log.WithField("result", result).Debug("Verify status")
		if !done {
			fmt.Fprintln(e.prompt, "Try again")
			continue
		}
		if result == resultMatch {
			return true, nil
		}
		return false, errors.New(result)
	}
	return false, errors.New("system bus connection closed")
}
