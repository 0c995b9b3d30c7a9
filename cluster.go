package glideshift

import "regexp"

// ClusterStrategy rewrites ioredis cluster constructs. The node list is
// passed to the cluster factory verbatim.
type ClusterStrategy struct {
	cfg *Config
}

func NewClusterStrategy(cfg *Config) *ClusterStrategy {
	return &ClusterStrategy{cfg: cfg}
}

func (s *ClusterStrategy) Name() string {
	return "cluster"
}

var (
	reClusterCtor       = regexp.MustCompile(`new\s+[A-Za-z_$][\w$]*\.Cluster\(\s*(?P<nodes>\[[^\]]*\])\s*(?:,\s*\{[^{}]*\}\s*)?\)`)
	reClusterImport     = regexp.MustCompile(`(?m)^[ \t]*import\s+[A-Za-z_$][\w$]*\s+from\s+['"]ioredis['"];?`)
	reClusterRequire    = regexp.MustCompile(`(?m)^[ \t]*(?:const|let|var)\s+[A-Za-z_$][\w$]*\s*=\s*require\(\s*['"]ioredis['"]\s*\);?`)
	reNRCreateCluster   = regexp.MustCompile(`(?:[\w$]+\.)?createCluster\s*\(`)
	glideClusterImport  = "import { GlideClusterClient } from '@valkey/valkey-glide';"
	glideClusterRequire = "const { GlideClusterClient } = require('@valkey/valkey-glide');"
)

func (s *ClusterStrategy) Apply(src *Source) *StrategyResult {
	rc := newRuleContext(s.cfg, src.From)
	code := rc.applyRules(src.Code, []Rule{
		{Name: "cluster-import", Pattern: reClusterImport, Template: glideClusterImport},
		{Name: "cluster-require", Pattern: reClusterRequire, Template: glideClusterRequire},
		{Name: "cluster-constructor", Pattern: reClusterCtor,
			Template: "await GlideClusterClient.createClient({ addresses: {{nodes}} })",
			Warning:  "cluster failover behavior may differ between clients; validate failover handling before rollout",
			Note:     "review the cluster configuration passed to GlideClusterClient.createClient"},
		{Name: "node-redis-create-cluster", Pattern: reNRCreateCluster, Rewrite: keepCode,
			Warning: "node-redis createCluster() is not rewritten automatically; construct a GlideClusterClient manually"},
	})
	return rc.result(transformCommon(code))
}

// keepCode is the identity rewrite for rules that only report.
func keepCode(rc *ruleContext, code string) string {
	return code
}
