package glideshift

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	testcases := []struct {
		args     string
		expected []string
	}{
		{"'a', 'b'", []string{"'a'", "'b'"}},
		{"'a, b', 'c'", []string{"'a, b'", "'c'"}},
		{"[1, 2], fn(x, y)", []string{"[1, 2]", "fn(x, y)"}},
		{"{ keys: ['k'], arguments: ['a'] }", []string{"{ keys: ['k'], arguments: ['a'] }"}},
		{"", nil},
	}
	for _, tc := range testcases {
		require.Equal(t, tc.expected, splitArgs(tc.args), tc.args)
	}
}

func TestFindCall(t *testing.T) {
	code := `await redis.eval('return redis.call("GET", KEYS[1])', 1, 'k');`
	start, end, args, ok := findCall(code, ".eval(", 0)
	require.True(t, ok)
	require.Equal(t, `'return redis.call("GET", KEYS[1])', 1, 'k'`, args)
	require.Equal(t, ".", string(code[start]))
	require.Equal(t, ";", string(code[end]))

	_, _, _, ok = findCall(code, ".exec(", 0)
	require.False(t, ok)
}

func TestRemoveObjectField(t *testing.T) {
	body := `host: 'a', retryStrategy: (times) => Math.min(times * 50, 2000), port: 6380`
	rest := removeObjectField(body, "retryStrategy")
	// the value is consumed up to the top-level comma, nested commas included
	require.NotContains(t, rest, "retryStrategy")
	require.NotContains(t, rest, "2000")
	require.Contains(t, rest, "host: 'a'")
	require.Contains(t, rest, "port: 6380")

	require.Equal(t, `port: 6380`, removeObjectField(`port: 6380`, "missing"))
}

func TestEnsureGlideImport(t *testing.T) {
	code := "import { GlideClient } from '@valkey/valkey-glide';\nconst c = 1;"
	out := ensureGlideImport(code, "Transaction")
	require.Contains(t, out, "import { GlideClient, Transaction } from '@valkey/valkey-glide';")

	// already-present symbols are not duplicated
	require.Equal(t, out, ensureGlideImport(out, "Transaction"))

	// no existing target import prepends a fresh one
	out = ensureGlideImport("const x = 1;", "Script")
	require.Contains(t, out, "import { Script } from '@valkey/valkey-glide';")
}

func TestNearestClientVar(t *testing.T) {
	code := `const client = await GlideClient.createClient({ addresses: [] });
const tx = new Transaction();
const s = new Set();
await tx.exec();`
	offset := len(code)
	// constructor bindings for known value types are skipped
	require.Equal(t, "client", nearestClientVar(code, offset))
	require.Equal(t, "", nearestClientVar("const a = 1;", 12))
}

func TestApplyRulesFiringSemantics(t *testing.T) {
	rc := newRuleContext(nil, ClientIORedis)
	rules := []Rule{
		{Name: "fires", Pattern: regexp.MustCompile(`foo`), Template: "bar",
			Warning: "fired-warning"},
		{Name: "never", Pattern: regexp.MustCompile(`zzz`), Template: "yyy",
			Warning: "silent-warning"},
		{Name: "noop-rewrite", Rewrite: keepCode, Note: "silent-note"},
	}
	out := rc.applyRules("foo baz", rules)
	require.Equal(t, "bar baz", out)
	require.Equal(t, []string{"fired-warning"}, rc.warnings)
	require.Empty(t, rc.notes)
}
