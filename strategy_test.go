package glideshift

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectStrategy(t *testing.T) {
	testcases := []struct {
		level    ComplexityLevel
		tags     []PatternTag
		expected string
	}{
		{ComplexitySimple, nil, "naive"},
		{ComplexitySimple, []PatternTag{PatternCluster}, "cluster"},
		{ComplexityAdvanced, []PatternTag{PatternCluster, PatternPipeline}, "cluster"},
		{ComplexityAdvanced, []PatternTag{PatternPipeline}, "transaction"},
		{ComplexityIntermediate, []PatternTag{PatternTransaction}, "transaction"},
		{ComplexityAdvanced, []PatternTag{PatternLua}, "advanced"},
		{ComplexityIntermediate, []PatternTag{PatternPubSub}, "advanced"},
		// keyword hit without a structural pattern still widens the rule set
		{ComplexityAdvanced, nil, "advanced"},
	}
	for _, tc := range testcases {
		s := selectStrategy(&DefaultConfig, tc.level, tc.tags)
		require.Equal(t, tc.expected, s.Name(), "level=%v tags=%v", tc.level, tc.tags)
	}
}
