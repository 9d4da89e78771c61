package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnified(t *testing.T) {
	a := []string{
		"evt-000001 covenant.yml allow rule.selected.pr-any",
		"evt-000002 covenant.yml deny attestation.missing",
		"evt-000003 covenant.yml warn defaults.unmatched",
	}
	b := []string{
		"evt-000001 covenant.yml allow rule.selected.pr-any",
		"evt-000002 covenant.yml allow rule.selected.agent-pr-open",
		"evt-000003 covenant.yml warn defaults.unmatched",
	}

	result, err := Unified("a", "b", a, b, 1)
	require.NoError(t, err)

	assert.False(t, result.Identical())
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, `--- a
+++ b
@@ -1,3 +1,3 @@
 evt-000001 covenant.yml allow rule.selected.pr-any
-evt-000002 covenant.yml deny attestation.missing
+evt-000002 covenant.yml allow rule.selected.agent-pr-open
 evt-000003 covenant.yml warn defaults.unmatched
`, result.Content)
}

func TestUnified_Identical(t *testing.T) {
	lines := []string{"evt-000001 open.yml allow defaults.unmatched"}

	result, err := Unified("a", "b", lines, lines, 3)
	require.NoError(t, err)
	assert.True(t, result.Identical())
	assert.Empty(t, result.Content)
}
