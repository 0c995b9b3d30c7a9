package glideshift

import "strings"

// ComplexityLevel categorizes source code by migration difficulty.
type ComplexityLevel string

const (
	ComplexitySimple       ComplexityLevel = "simple"
	ComplexityIntermediate ComplexityLevel = "intermediate"
	ComplexityAdvanced     ComplexityLevel = "advanced"
)

// Classify scans code against the config keyword tables and returns its
// complexity level. Matching is a case-insensitive substring scan: any
// advanced keyword hit wins, then any intermediate hit, otherwise simple.
//
// Known limitation: substring matching yields false positives (e.g.
// "executive" hits "exec"). A false positive only routes the request through
// a wider rule set whose rules then simply do not fire.
func Classify(code string, cfg *Config) ComplexityLevel {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	lower := strings.ToLower(code)
	for _, kw := range cfg.AdvancedKeywords {
		if strings.Contains(lower, kw) {
			return ComplexityAdvanced
		}
	}
	for _, kw := range cfg.IntermediateKeywords {
		if strings.Contains(lower, kw) {
			return ComplexityIntermediate
		}
	}
	return ComplexitySimple
}
