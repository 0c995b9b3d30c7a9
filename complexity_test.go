package glideshift

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	testcases := []struct {
		code     string
		expected ComplexityLevel
	}{
		{"await redis.get('key');", ComplexitySimple},
		{"const p = redis.pipeline();", ComplexityAdvanced},
		{"await redis.eval(script, 1, 'k');", ComplexityAdvanced},
		{"client.MULTI();", ComplexityAdvanced}, // matching is case-insensitive
		{"sub.subscribe('news');", ComplexityIntermediate},
		{"await client.xadd('stream', '*');", ComplexityIntermediate},
		{"const batchSize = 10;", ComplexityIntermediate},
		// substring matching false positive: "executive" hits "exec"
		{"const executiveSummary = await redis.get('report');", ComplexityAdvanced},
	}
	for _, tc := range testcases {
		require.Equal(t, tc.expected, Classify(tc.code, nil), tc.code)
	}
}

func TestClassifyCustomKeywords(t *testing.T) {
	cfg := &Config{
		AdvancedKeywords:     []string{"danger"},
		IntermediateKeywords: []string{"medium"},
	}
	cfg.fillDefaults()
	require.Equal(t, ComplexityAdvanced, Classify("danger zone", cfg))
	require.Equal(t, ComplexityIntermediate, Classify("medium rare", cfg))
	require.Equal(t, ComplexitySimple, Classify("plain get/set", cfg))
}
