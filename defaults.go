package glideshift

import _ "embed"

// DefaultConfigBin is the embedded default config, written to
// $HOME/.config/glideshift/ on first run by the CLI.
//
//go:embed defaults.yaml
var DefaultConfigBin []byte

// Keyword hits are case-insensitive substring matches. This is intentionally
// naive and yields false positives ("executive" matches "exec"); a hit only
// widens the rule set that runs, it never corrupts output.
var defaultAdvancedKeywords = []string{
	"cluster", "pipeline", "multi", "exec", "watch", "eval", "evalsha",
}

var defaultIntermediateKeywords = []string{
	"transaction", "batch", "pub", "sub", "stream",
}

// defaultBlockingAliases maps source blocking commands to the native target
// methods. brpoplpush has no literal equivalent and maps to the list-move
// form; the rest share names with the target client.
var defaultBlockingAliases = map[string]string{
	"brpoplpush": "blmove",
	"blpop":      "blpop",
	"brpop":      "brpop",
	"bzpopmin":   "bzpopmin",
	"bzpopmax":   "bzpopmax",
}

// defaultHashAliases normalizes node-redis camelCase hash accessors.
var defaultHashAliases = map[string]string{
	"hSet":       "hset",
	"hGet":       "hget",
	"hGetAll":    "hgetall",
	"hDel":       "hdel",
	"hmGet":      "hmget",
	"hSetNX":     "hsetnx",
	"hIncrBy":    "hincrby",
	"hExists":    "hexists",
	"hKeys":      "hkeys",
	"hVals":      "hvals",
	"hLen":       "hlen",
	"hRandField": "hrandfield",
	"hScan":      "hscan",
	"hStrLen":    "hstrlen",
}

// DefaultConfig is used whenever the caller does not supply a config.
var DefaultConfig = Config{
	AdvancedKeywords:     defaultAdvancedKeywords,
	IntermediateKeywords: defaultIntermediateKeywords,
	BlockingAliases:      defaultBlockingAliases,
	HashAliases:          defaultHashAliases,
	DefaultHost:          "localhost",
	DefaultPort:          6379,
}
