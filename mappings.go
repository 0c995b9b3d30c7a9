package glideshift

import "sort"

// MethodMapping records how one source-client method lands in the target
// API. The table is advisory; the rule lists do the actual rewriting.
type MethodMapping struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`
}

// MappingProvider answers method-name lookups for a given source client.
type MappingProvider interface {
	Lookup(method string, from Client) (MethodMapping, bool)
}

type mappingTable struct {
	cfg *Config
}

func NewMappingProvider(cfg *Config) MappingProvider {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	return &mappingTable{cfg: cfg}
}

func (t *mappingTable) Lookup(method string, from Client) (MethodMapping, bool) {
	for _, m := range CanonicalRenames(from, t.cfg) {
		if m.Source == method {
			return m, true
		}
	}
	return MethodMapping{}, false
}

// CanonicalRenames lists every method rename the rule lists perform for the
// given source client, sorted by source name for deterministic output.
func CanonicalRenames(from Client, cfg *Config) []MethodMapping {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	var mappings []MethodMapping
	switch from {
	case ClientNodeRedis:
		for src, dst := range cfg.HashAliases {
			mappings = append(mappings, MethodMapping{Source: src, Target: dst})
		}
		mappings = append(mappings,
			MethodMapping{Source: "setEx", Target: "set", Note: "ttl moves into the expiry option"},
			MethodMapping{Source: "pSetEx", Target: "set", Note: "ttl moves into the expiry option"},
			MethodMapping{Source: "disconnect", Target: "close"},
			MethodMapping{Source: "quit", Target: "close"},
			MethodMapping{Source: "eval", Target: "invokeScript", Note: "script body is hoisted into a Script object"},
		)
	default:
		for src, dst := range cfg.BlockingAliases {
			note := ""
			if src == "brpoplpush" {
				note = "explicit 'right'/'left' directions are appended"
			}
			mappings = append(mappings, MethodMapping{Source: src, Target: dst, Note: note})
		}
		mappings = append(mappings,
			MethodMapping{Source: "setex", Target: "set", Note: "ttl moves into the expiry option"},
			MethodMapping{Source: "psetex", Target: "set", Note: "ttl moves into the expiry option"},
			MethodMapping{Source: "quit", Target: "close"},
			MethodMapping{Source: "disconnect", Target: "close"},
			MethodMapping{Source: "eval", Target: "invokeScript", Note: "script body is hoisted into a Script object"},
		)
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].Source < mappings[j].Source })
	return mappings
}
