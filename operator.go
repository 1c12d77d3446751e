package keymaster

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Operator performs exactly one operation against a vault on behalf of an
// already authenticated caller. It re-validates nothing.
type Operator struct {
	vault Vault
	log   logrus.FieldLogger
}

// NewOperator returns an Operator bound to v. A nil logger falls back to the
// logrus standard logger.
func NewOperator(v Vault, log logrus.FieldLogger) *Operator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Operator{
		vault: v,
		log:   log.WithField("backend", v.String()),
	}
}

// Backend returns the name of the underlying vault.
func (o *Operator) Backend() string {
	return o.vault.String()
}

// Store upserts payload under key. The write is trusted as reported; no
// read-back is performed.
func (o *Operator) Store(ctx context.Context, key string, payload []byte) bool {
	if err := o.vault.InsertOrReplace(ctx, key, payload); err != nil {
		o.log.WithField("key", key).WithError(err).Debug("Failed to store secret")
		return false
	}
	return true
}

// Fetch returns the payload stored under key. A missing key and a failed
// read are indistinguishable to the caller; use Lookup when the difference
// matters.
func (o *Operator) Fetch(ctx context.Context, key string) ([]byte, bool) {
	payload, err := o.Lookup(ctx, key)
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Lookup is Fetch with a detailed result: ErrSecretNotFound when the key is
// absent, a vault Error otherwise.
func (o *Operator) Lookup(ctx context.Context, key string) ([]byte, error) {
	payload, err := o.vault.Fetch(ctx, key)
	if err == nil {
		return payload, nil
	}
	if errors.Is(err, ErrSecretNotFound) {
		o.log.WithField("key", key).Debug("Secret not found")
		return nil, ErrSecretNotFound
	}
	o.log.WithField("key", key).WithError(err).Debug("Failed to fetch secret")
	return nil, VaultError("failed to fetch secret", err)
}

// Erase removes the entry for key. Erasing an absent key succeeds.
func (o *Operator) Erase(ctx context.Context, key string) bool {
	if err := o.vault.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return true
		}
		o.log.WithField("key", key).WithError(err).Debug("Failed to delete secret")
		return false
	}
	return true
}
