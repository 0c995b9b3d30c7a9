package glideshift

import "strings"

// PatternTag is a detected structural feature of input code. Tags are
// non-exclusive; a request may carry several.
type PatternTag string

const (
	PatternCluster           PatternTag = "cluster"
	PatternSentinel          PatternTag = "sentinel"
	PatternPipeline          PatternTag = "pipeline"
	PatternTransaction       PatternTag = "transaction"
	PatternLua               PatternTag = "lua"
	PatternPubSub            PatternTag = "pubsub"
	PatternStreams           PatternTag = "streams"
	PatternScan              PatternTag = "scan"
	PatternOptimisticLocking PatternTag = "optimistic-locking"
	PatternBlocking          PatternTag = "blocking"
)

type patternCheck struct {
	tag     PatternTag
	needles []string
}

// patternChecks is evaluated in order; detector output preserves this order.
var patternChecks = []patternCheck{
	{PatternCluster, []string{"cluster"}},
	{PatternSentinel, []string{"sentinel"}},
	{PatternPipeline, []string{"pipeline"}},
	{PatternTransaction, []string{"multi", "exec"}},
	{PatternLua, []string{"eval", "evalsha"}},
	{PatternPubSub, []string{"pub", "sub"}},
	{PatternStreams, []string{"stream", "xadd"}},
	{PatternScan, []string{"scan", "sscan"}},
	{PatternOptimisticLocking, []string{"watch", "unwatch"}},
	{PatternBlocking, []string{"blocking", "blpop"}},
}

// Detect tests code independently for each pattern tag via case-insensitive
// substring search and returns the hits in check order.
func Detect(code string) []PatternTag {
	lower := strings.ToLower(code)
	var tags []PatternTag
	for _, check := range patternChecks {
		for _, needle := range check.needles {
			if strings.Contains(lower, needle) {
				tags = append(tags, check.tag)
				break
			}
		}
	}
	return tags
}

func hasTag(tags []PatternTag, tag PatternTag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
