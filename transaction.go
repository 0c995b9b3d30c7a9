package glideshift

import (
	"regexp"
	"strings"
)

// TransactionStrategy rewrites pipeline()/multi() usage into the target
// Transaction/Batch constructs, routing exec() through the owning client.
type TransactionStrategy struct {
	cfg *Config
}

func NewTransactionStrategy(cfg *Config) *TransactionStrategy {
	return &TransactionStrategy{cfg: cfg}
}

func (s *TransactionStrategy) Name() string {
	return "transaction"
}

var (
	reTxBind       = regexp.MustCompile(`(?m)(const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*([\w$.]+)\.(pipeline|multi)\(\s*\)`)
	reBareExec     = regexp.MustCompile(`\.exec\(\s*\)`)
	rePipelineCall = regexp.MustCompile(`[\w$.]+\.pipeline\(\s*\)`)
	reMultiCall    = regexp.MustCompile(`[\w$.]+\.multi\(\s*\)`)
)

func (s *TransactionStrategy) Apply(src *Source) *StrategyResult {
	rc := newRuleContext(s.cfg, src.From)
	code := rc.applyRules(src.Code, []Rule{
		{Name: "transaction-binding", Rewrite: rewriteTransactionBinding},
		{Name: "unbound-batch", Rewrite: rewriteUnboundBatch,
			Note: "pipeline()/multi() was not bound to a variable; a Batch was substituted in place"},
		{Name: "tracked-exec", Rewrite: rewriteTrackedExec},
		{Name: "client-transaction-repair", Rewrite: rewriteClientTransactionRepair},
		{Name: "unresolved-exec", Pattern: reBareExec, Template: ".exec(batch)",
			Warning: "exec() had no tracked transaction; a `batch` variable must exist in scope for exec(batch)"},
		{Name: "transaction-import", Rewrite: rewriteTransactionImport},
	})
	return rc.result(transformCommon(code))
}

// rewriteTransactionBinding rewrites bound pipeline()/multi() calls, recording
// (variable, client expression) pairs. multi() is atomic, pipeline() is not.
func rewriteTransactionBinding(rc *ruleContext, code string) string {
	locs := reTxBind.FindAllStringSubmatchIndex(code, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		kw := code[loc[2]:loc[3]]
		txVar := code[loc[4]:loc[5]]
		clientExpr := code[loc[6]:loc[7]]
		atomic := "false"
		if code[loc[8]:loc[9]] == "multi" {
			atomic = "true"
		}
		rc.track(txVar, clientExpr)
		code = code[:loc[0]] + kw + " " + txVar + " = new Transaction(" + atomic + ")" + code[loc[1]:]
	}
	return code
}

// rewriteUnboundBatch is the fallback when no binding pattern was found.
func rewriteUnboundBatch(rc *ruleContext, code string) string {
	if len(rc.txOrder) > 0 {
		return code
	}
	code = rePipelineCall.ReplaceAllString(code, "new Batch(false)")
	code = reMultiCall.ReplaceAllString(code, "new Batch(true)")
	return code
}

// rewriteClientTransactionRepair fixes the malformed-but-observed
// `<client>.<tx>.<method>` pattern back into `<tx>.<method>`.
func rewriteClientTransactionRepair(rc *ruleContext, code string) string {
	for _, tx := range rc.txOrder {
		owner := rc.transactions[tx]
		re := regexp.MustCompile(regexp.QuoteMeta(owner) + `\.` + regexp.QuoteMeta(tx) + `\.`)
		code = re.ReplaceAllString(code, tx+".")
	}
	return code
}

// rewriteTransactionImport inserts the Transaction/Batch symbol into the
// import list when referenced but not imported.
func rewriteTransactionImport(rc *ruleContext, code string) string {
	var symbols []string
	if strings.Contains(code, "new Transaction(") {
		symbols = append(symbols, "Transaction")
	}
	if strings.Contains(code, "new Batch(") {
		symbols = append(symbols, "Batch")
	}
	if len(symbols) == 0 {
		return code
	}
	return ensureGlideImport(code, symbols...)
}
