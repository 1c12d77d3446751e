package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libopenstorage/keymaster"
	"github.com/libopenstorage/keymaster/auth"
	"github.com/libopenstorage/keymaster/auth/passcode"
	"github.com/libopenstorage/keymaster/config"
)

const changePasscodeReason = "Change the keymaster passcode"

func newPasscodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passcode",
		Short: "Set or change the fallback passcode",
		Long: `Set or change the passcode used when fingerprint verification is
unavailable or fails. Changing an existing passcode requires authenticating
first. Setting the first one requires a fingerprint match when a reader is
available. Only the bcrypt hash is written to the config file.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 {
				return keymaster.UsageError("passcode takes no arguments", nil)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			if err := a.authorizePasscodeChange(cmd.Context()); err != nil {
				return err
			}

			code, err := passcode.ReadNew(a.stderr, a.deps.terminal)
			if err != nil {
				return fmt.Errorf("Error setting passcode: %v", err)
			}
			hash, err := passcode.Hash(code)
			if err != nil {
				return fmt.Errorf("Error setting passcode: %v", err)
			}

			path := config.Path(a.configPath)
			if err := config.Update(path, func(cfg *config.Config) {
				cfg.Auth.PasscodeHash = hash
			}); err != nil {
				return fmt.Errorf("Error saving passcode to %s: %v", path, err)
			}
			a.log.WithField("path", path).Debug("passcode hash saved")
			fmt.Fprintln(a.stdout, "Passcode has been successfully set")
			return nil
		},
	}
}

// authorizePasscodeChange gates the passcode command. An existing passcode
// is changed after the usual authentication. The first passcode needs a
// fingerprint match whenever a reader is available; only a host with no
// method at all sets it unchallenged.
func (a *app) authorizePasscodeChange(ctx context.Context) error {
	platform := a.platform()
	if a.cfg.Auth.PasscodeHash != "" {
		return a.authenticateWith(ctx, platform, changePasscodeReason)
	}
	if err := platform.CanEvaluate(auth.Strong); err != nil {
		a.log.WithError(err).Debug("No authentication method available, setting first passcode")
		return nil
	}
	return a.authenticateWith(ctx, auth.StrongOnly(platform), changePasscodeReason)
}
