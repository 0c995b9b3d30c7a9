package glideshift

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvancedLuaIORedis(t *testing.T) {
	code := `import Redis from 'ioredis';
const redis = new Redis();
const n = await redis.eval('return redis.call("INCR", KEYS[1])', 1, 'counter', 'delta');
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternLua})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, res.Code, `const luaScript = new Script('return redis.call("INCR", KEYS[1])');`)
	require.Contains(t, res.Code, "await luaScript.execute(redis, { keys: ['counter'], args: ['delta'] })")
	require.NotContains(t, res.Code, ".eval(")
	require.NotContains(t, res.Code, "await await")
	require.Contains(t, strings.Join(res.Warnings, "\n"), "Script")
}

func TestAdvancedLuaNodeRedisOptionsForm(t *testing.T) {
	code := `const client = createClient();
const r = await client.eval('return 1', { keys: ['k'], arguments: ['a'] });
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternLua})
	res := s.Apply(&Source{Code: code, From: ClientNodeRedis})
	require.Contains(t, res.Code, "const luaScript = new Script('return 1');")
	require.Contains(t, res.Code, "luaScript.execute(client, { keys: ['k'], args: ['a'] })")
}

func TestAdvancedEvalshaWarning(t *testing.T) {
	code := `await redis.evalsha(sha, 1, 'k');`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternLua})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, strings.Join(res.Warnings, "\n"), "evalsha")
}

func TestAdvancedPubSubIORedis(t *testing.T) {
	code := `import Redis from 'ioredis';
const sub = new Redis();
sub.subscribe('news', 'updates');
sub.psubscribe('user.*');
sub.on('message', (channel, message) => {
  console.log(channel, message);
});
sub.publish('news', 'hello');
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternPubSub})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, res.Code, "[PubSubChannelModes.Exact]: new Set(['news', 'updates'])")
	require.Contains(t, res.Code, "[PubSubChannelModes.Pattern]: new Set(['user.*'])")
	require.Contains(t, res.Code, "pubsubSubscriptions")
	require.Contains(t, res.Code, "while (true) {")
	require.Contains(t, res.Code, "const pubsubMessage = await sub.getPubSubMessage();")
	require.Contains(t, res.Code, "const channel = pubsubMessage.channel;")
	require.Contains(t, res.Code, "console.log(channel, message);")
	// publish argument order is message-first on the target client
	require.Contains(t, res.Code, ".publish('hello', 'news')")
	require.NotContains(t, res.Code, ".subscribe(")
	require.NotContains(t, res.Code, ".on('message'")
	require.Contains(t, res.Code, "PubSubChannelModes")
}

func TestAdvancedPubSubSkipsValueConstructorBindings(t *testing.T) {
	code := `import Redis from 'ioredis';
const cache = new Map();
const sub = new Redis();
sub.subscribe('news');
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternPubSub})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, res.Code, "const cache = new Map();")
	require.NotContains(t, res.Code, "new Map({")
	// the subscription config lands on the client construction, not the Map
	require.Contains(t, res.Code, "pubsubSubscriptions: { channelsAndPatterns: { [PubSubChannelModes.Exact]: new Set(['news']) } }")
	require.Contains(t, res.Code, "await GlideClient.createClient(")
}

func TestAdvancedIORedisSubscribeAckCallback(t *testing.T) {
	code := `import Redis from 'ioredis';
const sub = new Redis();
sub.subscribe('news', (err, count) => {
  console.log(count);
});
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternPubSub})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	// ioredis arrow arguments are acknowledgment callbacks, not listeners
	require.Contains(t, res.Code, "// channels declared at client construction (pubsubSubscriptions)")
	require.NotContains(t, res.Code, "while (true)")
	require.NotContains(t, res.Code, "const err = pubsubMessage")
}

func TestAdvancedNodeRedisSubscribeListener(t *testing.T) {
	code := `const client = createClient();
await client.subscribe('news', (message, channel) => {
  console.log(message);
});
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternPubSub})
	res := s.Apply(&Source{Code: code, From: ClientNodeRedis})
	require.Contains(t, res.Code, "pubsubSubscriptions")
	require.Contains(t, res.Code, "while (true) {")
	require.Contains(t, res.Code, "const pubsubMessage = await client.getPubSubMessage();")
	require.Contains(t, res.Code, "const message = pubsubMessage.message;")
	require.Contains(t, res.Code, "const channel = pubsubMessage.channel;")
	require.Contains(t, res.Code, "console.log(message);")
}

func TestAdvancedSingleGlideImportLine(t *testing.T) {
	code := `import Redis from 'ioredis';
const sub = new Redis();
sub.subscribe('news');
await sub.eval('return 1', 0);
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternLua, PatternPubSub})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Equal(t, 1, strings.Count(res.Code, "@valkey/valkey-glide"))
	require.Contains(t, res.Code, "Script")
	require.Contains(t, res.Code, "PubSubChannelModes")
	require.NotContains(t, res.Code, "ioredis")
}

func TestAdvancedPubSubNoConstructionSite(t *testing.T) {
	code := `sub.subscribe('news');`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternPubSub})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, strings.Join(res.Warnings, "\n"), "pubsubSubscriptions")
}

func TestAdvancedStreamsNote(t *testing.T) {
	code := `import Redis from 'ioredis';
const redis = new Redis();
await redis.xadd('events', '*', 'type', 'signup');
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternStreams})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	// stream calls pass through untouched
	require.Contains(t, res.Code, ".xadd('events', '*', 'type', 'signup')")
	require.Contains(t, strings.Join(res.Notes, "\n"), "stream commands map one to one")
}

func TestAdvancedBlockingWarning(t *testing.T) {
	code := `const item = await redis.blpop('queue', 5);`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternBlocking})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, res.Code, ".blpop('queue', 5)")
	require.Contains(t, strings.Join(res.Warnings, "\n"), "connection")
}

func TestAdvancedRunsNaiveRulesAfterwards(t *testing.T) {
	code := `import Redis from 'ioredis';
const redis = new Redis();
await redis.eval('return 1', 0);
await redis.quit();
`
	s := NewAdvancedStrategy(nil, []PatternTag{PatternLua})
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, res.Code, "await GlideClient.createClient(")
	require.Contains(t, res.Code, "redis.close()")
	require.NotContains(t, res.Code, "ioredis")
}
