package keymaster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	testCases := []struct {
		name     string
		verb     string
		args     []string
		expected *Request
	}{
		{
			name:     "set with secret",
			verb:     "set",
			args:     []string{"mykey", "hunter2"},
			expected: &Request{Operation: Store, Key: "mykey", Payload: []byte("hunter2")},
		},
		{
			name:     "set without secret stores empty payload",
			verb:     "set",
			args:     []string{"mykey"},
			expected: &Request{Operation: Store, Key: "mykey", Payload: []byte{}},
		},
		{
			name:     "get",
			verb:     "get",
			args:     []string{"mykey"},
			expected: &Request{Operation: Fetch, Key: "mykey"},
		},
		{
			name:     "delete",
			verb:     "delete",
			args:     []string{"mykey"},
			expected: &Request{Operation: Erase, Key: "mykey"},
		},
	}

	for _, tc := range testCases {
		req, err := NewRequest(tc.verb, tc.args)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.expected, req, tc.name)
	}
}

func TestNewRequestUsageErrors(t *testing.T) {
	testCases := []struct {
		name string
		verb string
		args []string
	}{
		{name: "unknown verb", verb: "foo", args: []string{"mykey"}},
		{name: "get without key", verb: "get"},
		{name: "get with secret", verb: "get", args: []string{"mykey", "extra"}},
		{name: "delete with secret", verb: "delete", args: []string{"mykey", "extra"}},
		{name: "set with too many arguments", verb: "set", args: []string{"mykey", "a", "b"}},
		{name: "empty key", verb: "set", args: []string{"", "hunter2"}},
	}

	for _, tc := range testCases {
		req, err := NewRequest(tc.verb, tc.args)
		require.Error(t, err, tc.name)
		assert.Nil(t, req, tc.name)
		assert.True(t, IsKind(err, KindUsage), tc.name)
	}

	_, err := NewRequest("get", []string{""})
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestRequestReason(t *testing.T) {
	assert.Equal(t, "Set the secret for db", (&Request{Operation: Store, Key: "db"}).Reason())
	assert.Equal(t, "Access the secret for db", (&Request{Operation: Fetch, Key: "db"}).Reason())
	assert.Equal(t, "Delete the secret for db", (&Request{Operation: Erase, Key: "db"}).Reason())
}

func TestOperationVerbRoundTrip(t *testing.T) {
	for _, op := range []Operation{Store, Fetch, Erase} {
		parsed, err := ParseOperation(op.Verb())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}
}
