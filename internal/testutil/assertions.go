package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertMessage checks that one of msgs contains substr. Build results and
// analyses report problems as free-form messages; matching on a fragment
// keeps tests independent of the paths embedded in them.
func AssertMessage(t *testing.T, msgs []string, substr string) {
	t.Helper()

	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return
		}
	}
	require.Failf(t, "message not found",
		"expected a message containing %q, got:\n  %s", substr, strings.Join(msgs, "\n  "))
}

// AssertNoMessage checks that none of msgs contains substr.
func AssertNoMessage(t *testing.T, msgs []string, substr string) {
	t.Helper()

	for _, m := range msgs {
		require.NotContains(t, m, substr)
	}
}
