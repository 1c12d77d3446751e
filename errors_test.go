package keymaster

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", VaultError("failed to fetch secret", cause))

	assert.True(t, IsKind(err, KindVault))
	assert.False(t, IsKind(err, KindUsage))
	assert.False(t, IsKind(cause, KindVault))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "wrapped: failed to fetch secret: boom", err.Error())

	assert.Equal(t, "no method", AuthenticationError("no method", nil).Error())
	assert.Equal(t, "authentication", KindAuthentication.String())
}
