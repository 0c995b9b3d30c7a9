package glideshift

// Strategy rewrites one source unit. Exactly one strategy executes per
// request; every strategy finishes with the common transformer.
type Strategy interface {
	Name() string
	Apply(src *Source) *StrategyResult
}

// StrategyResult carries the rewritten code and everything the strategy
// could not safely automate.
type StrategyResult struct {
	Code     string
	Warnings []string
	Notes    []string
}

// selectStrategy implements the priority table; first match wins.
//  1. simple and no patterns -> naive
//  2. cluster detected       -> cluster
//  3. pipeline/transaction   -> transaction
//  4. otherwise              -> advanced (receives the full tag set)
func selectStrategy(cfg *Config, level ComplexityLevel, tags []PatternTag) Strategy {
	switch {
	case level == ComplexitySimple && len(tags) == 0:
		return NewNaiveStrategy(cfg)
	case hasTag(tags, PatternCluster):
		return NewClusterStrategy(cfg)
	case hasTag(tags, PatternPipeline) || hasTag(tags, PatternTransaction):
		return NewTransactionStrategy(cfg)
	default:
		return NewAdvancedStrategy(cfg, tags)
	}
}
