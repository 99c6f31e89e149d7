package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePolicyArgs(t *testing.T) {
	args, err := ParsePolicyArgs([]string{"epsilon=2.0", "state_rep=square"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"epsilon":   "2.0",
		"state_rep": "square",
	}, args)
}

func TestParsePolicyArgsRejectsBadPairs(t *testing.T) {
	_, err := ParsePolicyArgs([]string{"epsilon"})
	require.Error(t, err)
	_, err = ParsePolicyArgs([]string{"=1"})
	require.Error(t, err)
}
