package main

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/libopenstorage/keymaster/auth"
	"github.com/libopenstorage/keymaster/auth/fprint"
	"github.com/libopenstorage/keymaster/auth/passcode"
	"github.com/libopenstorage/keymaster/config"
)

// hostPlatform verifies the fingerprint through fprintd and falls back to the
// passcode read from the controlling terminal.
func hostPlatform(cfg *config.Config, prompt io.Writer, log logrus.FieldLogger) auth.Platform {
	p := &auth.HostPlatform{
		Weak: passcode.New(cfg.Auth.PasscodeHash, prompt, passcode.OpenTTY),
	}
	if cfg.Auth.Biometric.Disabled {
		return p
	}

	strong, err := fprint.New(fprint.Config{
		Username: cfg.Auth.Biometric.Username,
		Finger:   cfg.Auth.Biometric.Finger,
	}, prompt, log)
	if err != nil {
		log.WithError(err).Debug("Fingerprint verification unavailable")
		return p
	}
	p.Strong = strong
	return p
}
