package glideshift

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateSimple(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)

	code := `import Redis from 'ioredis';

const redis = new Redis();
await redis.set('greeting', 'hi');
const v = await redis.get('greeting');
`
	res, err := m.Migrate(&Source{Code: code, From: ClientIORedis})
	require.Nil(t, err)
	require.Equal(t, ComplexitySimple, res.Complexity)
	require.Empty(t, res.DetectedPatterns)
	require.Contains(t, res.TransformedCode, "await GlideClient.createClient(")
	require.Empty(t, res.Warnings)
}

func TestMigrateValidation(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)

	_, err = m.Migrate(&Source{Code: "", From: ClientIORedis})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"code"}, verr.Fields)

	_, err = m.Migrate(&Source{Code: "await r.get('k');", From: Client("jedis")})
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"from"}, verr.Fields)
}

func TestMigrateDedupesWarnings(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)

	// two malformed eval calls produce the same warning once
	code := `await redis.eval(s1, n, 'a');
await redis.eval(s2, n, 'b');
`
	res, err := m.Migrate(&Source{Code: code, From: ClientIORedis})
	require.Nil(t, err)
	joined := strings.Join(res.Warnings, "\n")
	require.Equal(t, 1, strings.Count(joined, "key count"))
}

func TestNewRejectsEmptyKeywordTables(t *testing.T) {
	saved := DefaultConfig
	DefaultConfig = Config{}
	defer func() { DefaultConfig = saved }()

	_, err := New(&Options{Config: &Config{}})
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "keyword")
}

type panicStrategy struct{}

func (panicStrategy) Name() string { return "explosive" }

func (panicStrategy) Apply(src *Source) *StrategyResult { panic("boom") }

func TestRunStrategyContainsPanics(t *testing.T) {
	src := &Source{Code: "await redis.get('k');", From: ClientIORedis}
	res := runStrategy(panicStrategy{}, src)
	require.Equal(t, src.Code, res.Code)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "failed unexpectedly")
	require.Contains(t, res.Warnings[0], "boom")
}

func TestMigratorIsReusable(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)
	for i := 0; i < 3; i++ {
		res, err := m.Migrate(&Source{Code: "await redis.del('a');", From: ClientIORedis})
		require.Nil(t, err)
		require.Equal(t, "await redis.del(['a']);", res.TransformedCode)
	}
}
