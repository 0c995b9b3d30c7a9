package glideshift

// NaiveStrategy handles simple sources with no detected patterns. It applies
// the source-specific ordered rule list, then the common transformer.
type NaiveStrategy struct {
	cfg *Config
}

func NewNaiveStrategy(cfg *Config) *NaiveStrategy {
	return &NaiveStrategy{cfg: cfg}
}

func (s *NaiveStrategy) Name() string {
	return "naive"
}

func (s *NaiveStrategy) Apply(src *Source) *StrategyResult {
	rc := newRuleContext(s.cfg, src.From)
	code := applyNaiveRules(rc, src.Code)
	return rc.result(transformCommon(code))
}

// applyNaiveRules runs the rule list matching the source client. The advanced
// strategy reuses it over partially rewritten code.
func applyNaiveRules(rc *ruleContext, code string) string {
	switch rc.from {
	case ClientNodeRedis:
		return rc.applyRules(code, nodeRedisRules())
	default:
		return rc.applyRules(code, ioredisRules())
	}
}
