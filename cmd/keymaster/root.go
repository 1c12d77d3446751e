package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/libopenstorage/keymaster"
	"github.com/libopenstorage/keymaster/auth"
	"github.com/libopenstorage/keymaster/auth/passcode"
	"github.com/libopenstorage/keymaster/config"
)

const usageLine = "keymaster [get|set|delete] [key] [secret]"

// deps are the collaborators replaced in tests.
type deps struct {
	platform func(cfg *config.Config, prompt io.Writer, log logrus.FieldLogger) auth.Platform
	vault    func(name string, vaultConfig map[string]interface{}) (keymaster.Vault, error)
	terminal passcode.Opener
}

// app is the state of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	deps   deps

	configPath         string
	backend            string
	logLevel           string
	distinguishMissing bool
	helpRequested      bool
	flags              *pflag.FlagSet

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "keymaster",
		Short: "Keep secrets in a vault behind fingerprint or passcode authentication",
		Long: `keymaster stores, retrieves and deletes secrets in a vault backend.

Every operation asks for the fingerprint first and falls back to the
keymaster passcode when the fingerprint is unavailable or fails.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return keymaster.UsageError("no command given", nil)
			}
			return keymaster.UsageError(fmt.Sprintf("unknown command %q", args[0]), nil)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return keymaster.UsageError("invalid flag", err)
	})
	// help is not a verb; both the command and the --help flag end in the
	// usage line and a failing status.
	root.SetHelpCommand(&cobra.Command{
		Use:    "help",
		Hidden: true,
		Args:   cobra.ArbitraryArgs,
		RunE: func(*cobra.Command, []string) error {
			return keymaster.UsageError(`unknown command "help"`, nil)
		},
	})
	root.SetHelpFunc(func(*cobra.Command, []string) {
		a.helpRequested = true
	})

	a.flags = root.PersistentFlags()
	a.flags.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/keymaster/config.yaml)")
	a.flags.StringVar(&a.backend, "backend", "", "vault backend, overrides the config file")
	a.flags.StringVar(&a.logLevel, "log-level", "", "log level: panic, fatal, error, warn, info, debug or trace")
	a.flags.BoolVar(&a.distinguishMissing, "distinguish-missing", false, "report a missing key differently from a vault failure")

	root.AddCommand(
		newSecretCmd(a, keymaster.Store),
		newSecretCmd(a, keymaster.Fetch),
		newSecretCmd(a, keymaster.Erase),
		newPasscodeCmd(a),
		newBackendsCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger. Flags override the
// file and the environment.
func (a *app) setup() error {
	a.log = logrus.New()
	a.log.SetOutput(a.stderr)

	cfg, err := config.Load(config.Path(a.configPath))
	if err != nil {
		return fmt.Errorf("Error loading configuration: %v", err)
	}
	if a.flags.Changed("backend") {
		cfg.Backend = a.backend
	}
	if a.flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if a.flags.Changed("distinguish-missing") {
		cfg.DistinguishMissing = a.distinguishMissing
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("Error loading configuration: %v", err)
	}
	a.log.SetLevel(level)
	a.cfg = cfg
	return nil
}

func (a *app) platform() auth.Platform {
	return a.deps.platform(a.cfg, a.stderr, a.log)
}

func (a *app) authenticate(ctx context.Context, reason string) error {
	return a.authenticateWith(ctx, a.platform(), reason)
}

func (a *app) authenticateWith(ctx context.Context, platform auth.Platform, reason string) error {
	outcome := auth.NewAuthenticator(platform, a.log).Authenticate(ctx, reason)
	if !outcome.Succeeded {
		return outcome.Err()
	}
	return nil
}

func registered(backend string) bool {
	for _, name := range keymaster.Backends() {
		if name == backend {
			return true
		}
	}
	return false
}

// report prints the one line diagnostic for err.
func report(w io.Writer, err error) {
	var kmErr *keymaster.Error
	switch {
	case !errors.As(err, &kmErr):
		fmt.Fprintln(w, err)
	case kmErr.Kind == keymaster.KindUsage:
		fmt.Fprintln(w, usageLine)
	case kmErr.Kind == keymaster.KindAuthentication:
		fmt.Fprintf(w, "Authentication failed or was cancelled: %v\n", kmErr.Cause)
	default:
		fmt.Fprintln(w, kmErr)
	}
}
