package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libopenstorage/keymaster"
)

func newSecretCmd(a *app, op keymaster.Operation) *cobra.Command {
	cmd := &cobra.Command{
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := keymaster.NewRequest(op.Verb(), args)
			if err != nil {
				return err
			}
			return a.execute(cmd.Context(), req)
		},
	}
	switch op {
	case keymaster.Store:
		cmd.Use = "set <key> [secret]"
		cmd.Short = "Store a secret, replacing any previous one"
	case keymaster.Fetch:
		cmd.Use = "get <key>"
		cmd.Short = "Print a secret"
	case keymaster.Erase:
		cmd.Use = "delete <key>"
		cmd.Short = "Delete a secret"
	}
	// Everything after the key is positional, so secrets may start with "-".
	// A key starting with "-" must follow "--".
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// execute authenticates the user and then performs req against the
// configured vault.
func (a *app) execute(ctx context.Context, req *keymaster.Request) error {
	if err := a.setup(); err != nil {
		return err
	}
	if a.cfg.Backend == "" {
		return keymaster.ErrBackendNotSet
	}
	if !registered(a.cfg.Backend) {
		return fmt.Errorf("Unknown vault backend %q", a.cfg.Backend)
	}
	log := a.log.WithField("operation", req.Operation.String())

	if err := a.authenticate(ctx, req.Reason()); err != nil {
		return err
	}
	log.Debug("authenticated")

	v, err := a.deps.vault(a.cfg.Backend, a.cfg.Options)
	if err != nil {
		return keymaster.VaultError(fmt.Sprintf("Error initialising the %s backend", a.cfg.Backend), err)
	}
	operator := keymaster.NewOperator(v, log)

	switch req.Operation {
	case keymaster.Store:
		if !operator.Store(ctx, req.Key, req.Payload) {
			return keymaster.VaultError("Error setting secret for "+req.Key, nil)
		}
		fmt.Fprintf(a.stdout, "Key %s has been successfully set in the %s\n", req.Key, operator.Backend())
	case keymaster.Fetch:
		payload, err := a.fetch(ctx, operator, req.Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s\n", payload)
	case keymaster.Erase:
		if !operator.Erase(ctx, req.Key) {
			return keymaster.VaultError("Error deleting secret for "+req.Key, nil)
		}
		fmt.Fprintf(a.stdout, "Key %s has been successfully deleted from the %s\n", req.Key, operator.Backend())
	}
	return nil
}

func (a *app) fetch(ctx context.Context, operator *keymaster.Operator, key string) ([]byte, error) {
	if !a.cfg.DistinguishMissing {
		payload, ok := operator.Fetch(ctx, key)
		if !ok {
			return nil, keymaster.VaultError("Error getting secret for "+key, nil)
		}
		return payload, nil
	}

	payload, err := operator.Lookup(ctx, key)
	if errors.Is(err, keymaster.ErrSecretNotFound) {
		return nil, keymaster.VaultError("No secret stored for "+key, nil)
	} else if err != nil {
		return nil, keymaster.VaultError("Error getting secret for "+key, errors.Unwrap(err))
	}
	return payload, nil
}
