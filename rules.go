package glideshift

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/projectdiscovery/gologger"
)

const (
	glideModule  = "@valkey/valkey-glide"
	glideImport  = "import { GlideClient } from '@valkey/valkey-glide';"
	glideRequire = "const { GlideClient } = require('@valkey/valkey-glide');"
)

// Rule is a single ordered rewrite over source text. Rules either carry a
// Template rendered from the pattern's named capture groups, or a Rewrite
// function for transforms that need shared state. Warning/Note are recorded
// only when the rule actually fires; rule order within a strategy is part of
// the contract (import rewrites before constructor rewrites before method
// rewrites).
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	// Template is the fasttemplate replacement used when Rewrite is nil
	Template string
	// Rewrite implements transforms a plain template cannot express
	Rewrite func(rc *ruleContext, code string) string
	Warning string
	Note    string
}

// ruleContext is the request-scoped working set of one strategy run. Nothing
// in it survives the request.
type ruleContext struct {
	cfg  *Config
	from Client
	// clientSymbol is the identifier the source import bound ("Redis" by
	// default); constructor rules match against it
	clientSymbol string
	// transactions maps a tracked transaction variable to its owning client
	// expression, in discovery order
	transactions map[string]string
	txOrder      []string
	// hoistedScripts/hoistedTx count hoisted declarations for unique naming
	hoistedScripts int
	hoistedTx      int
	// pendingImports are target symbols to add once the import line has
	// reached its final shape
	pendingImports []string
	warnings       []string
	notes          []string
}

func newRuleContext(cfg *Config, from Client) *ruleContext {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	return &ruleContext{
		cfg:          cfg,
		from:         from,
		clientSymbol: "Redis",
		transactions: map[string]string{},
	}
}

func (rc *ruleContext) warnf(format string, args ...interface{}) {
	rc.warnings = append(rc.warnings, fmt.Sprintf(format, args...))
}

func (rc *ruleContext) notef(format string, args ...interface{}) {
	rc.notes = append(rc.notes, fmt.Sprintf(format, args...))
}

func (rc *ruleContext) needImport(symbols ...string) {
	rc.pendingImports = append(rc.pendingImports, symbols...)
}

func (rc *ruleContext) track(txVar, clientExpr string) {
	if _, ok := rc.transactions[txVar]; !ok {
		rc.txOrder = append(rc.txOrder, txVar)
	}
	rc.transactions[txVar] = clientExpr
}

func (rc *ruleContext) result(code string) *StrategyResult {
	return &StrategyResult{Code: code, Warnings: rc.warnings, Notes: rc.notes}
}

// applyRules runs rules in order over code. A rule fires when its pattern
// matches, or (for pattern-less rewrites) when it changed the text; only
// fired rules contribute their warning/note.
func (rc *ruleContext) applyRules(code string, rules []Rule) string {
	for _, rule := range rules {
		fired := false
		if rule.Pattern != nil {
			if !rule.Pattern.MatchString(code) {
				continue
			}
			fired = true
		}
		before := code
		switch {
		case rule.Rewrite != nil:
			code = rule.Rewrite(rc, code)
		case rule.Pattern != nil:
			re := rule.Pattern
			code = re.ReplaceAllStringFunc(code, func(m string) string {
				return Replace(rule.Template, captureMap(re, re.FindStringSubmatch(m)))
			})
		}
		if !fired {
			fired = code != before
		}
		if !fired {
			continue
		}
		gologger.Verbose().Msgf("rule %v fired", rule.Name)
		if rule.Warning != "" {
			rc.warnings = append(rc.warnings, rule.Warning)
		}
		if rule.Note != "" {
			rc.notes = append(rc.notes, rule.Note)
		}
	}
	return code
}

// findCall locates the first occurrence of prefix (which must end with an
// open paren, e.g. ".eval(") at or after from. It returns the match offset,
// the offset just past the matching close paren, and the raw argument text.
func findCall(code, prefix string, from int) (start, end int, args string, ok bool) {
	idx := strings.Index(code[from:], prefix)
	if idx == -1 {
		return 0, 0, "", false
	}
	start = from + idx
	open := start + len(prefix) - 1
	depth := 0
	var quote byte
	for i := open; i < len(code); i++ {
		ch := code[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 && ch == ')' {
				return start, i + 1, code[open+1 : i], true
			}
		}
	}
	return 0, 0, "", false
}

// matchParen returns the index just past the close paren matching the open
// paren at index open.
func matchParen(code string, open int) (int, bool) {
	if open >= len(code) || code[open] != '(' {
		return 0, false
	}
	depth := 0
	var quote byte
	for i := open; i < len(code); i++ {
		ch := code[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 && ch == ')' {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// removeObjectField drops a `name: value` member from an object-literal body,
// scanning the value with bracket/quote awareness up to the top-level comma.
func removeObjectField(body, name string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*:`)
	loc := re.FindStringIndex(body)
	if loc == nil {
		return body
	}
	depth := 0
	var quote byte
	i := loc[1]
	for ; i < len(body); i++ {
		ch := body[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == ',' && depth == 0 {
			i++
			break
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			// closing bracket of the enclosing object ends the field value
			if depth < 0 {
				return body[:loc[0]] + body[i:]
			}
		}
	}
	return body[:loc[0]] + body[i:]
}

// splitArgs splits call arguments on top-level commas, honoring nested
// brackets and string quotes.
func splitArgs(args string) []string {
	var parts []string
	depth := 0
	var quote byte
	last := 0
	for i := 0; i < len(args); i++ {
		ch := args[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(args[last:i]))
				last = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(args[last:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// reClientAssign matches assignments that bind a client instance: either an
// already-rewritten glide factory call or a source-shaped constructor.
var reClientAssign = regexp.MustCompile(`(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:await\s+)?(Glide(?:Cluster)?Client\.createClient|new\s+([A-Za-z_$][\w$]*)\s*\(|[\w$.]*createClient\s*\()`)

// isValueCtor reports whether a constructor name binds a plain value rather
// than a client connection.
func isValueCtor(name string) bool {
	switch name {
	case "Transaction", "Batch", "Script", "Set", "Map", "URL":
		return true
	}
	return false
}

// nearestClientVar scans backward from offset for the nearest prior
// client-factory assignment and returns the bound variable name.
func nearestClientVar(code string, offset int) string {
	if offset > len(code) {
		offset = len(code)
	}
	matches := reClientAssign.FindAllStringSubmatch(code[:offset], -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if isValueCtor(matches[i][3]) {
			continue
		}
		return matches[i][1]
	}
	return ""
}

var (
	reGlideImportList  = regexp.MustCompile(`import\s*\{([^}]*)\}\s*from\s*['"]` + glideModule + `['"]`)
	reGlideRequireList = regexp.MustCompile(`(?:const|let|var)\s*\{([^}]*)\}\s*=\s*require\(\s*['"]` + glideModule + `['"]\s*\)`)
	reImportLine       = regexp.MustCompile(`(?m)^(?:import\b[^\n]*|(?:const|let|var)\s+(?:\{[^}]*\}|[\w$]+)\s*=\s*require\([^)]*\)[^\n]*)\r?\n`)
)

// ensureGlideImport guarantees the given symbols appear in the target-client
// import list, extending an existing import/require or prepending a new one.
func ensureGlideImport(code string, symbols ...string) string {
	for _, re := range []*regexp.Regexp{reGlideImportList, reGlideRequireList} {
		loc := re.FindStringSubmatchIndex(code)
		if loc == nil {
			continue
		}
		existing := code[loc[2]:loc[3]]
		names := map[string]bool{}
		for _, n := range strings.Split(existing, ",") {
			names[strings.TrimSpace(n)] = true
		}
		missing := []string{}
		for _, s := range symbols {
			if !names[s] {
				missing = append(missing, s)
			}
		}
		if len(missing) == 0 {
			return code
		}
		updated := strings.TrimSpace(existing) + ", " + strings.Join(missing, ", ")
		return code[:loc[2]] + " " + updated + " " + code[loc[3]:]
	}
	return fmt.Sprintf("import { %v } from '%v';\n", strings.Join(symbols, ", "), glideModule) + code
}

// insertAfterImports places block after the last import/require line, or at
// the top when the source has none.
func insertAfterImports(code, block string) string {
	locs := reImportLine.FindAllStringIndex(code, -1)
	if len(locs) == 0 {
		return block + "\n" + code
	}
	end := locs[len(locs)-1][1]
	return code[:end] + "\n" + block + "\n" + code[end:]
}

// isStringLiteral reports whether expr is a single quoted string literal.
func isStringLiteral(expr string) bool {
	expr = strings.TrimSpace(expr)
	if len(expr) < 2 {
		return false
	}
	q := expr[0]
	if q != '\'' && q != '"' && q != '`' {
		return false
	}
	return expr[len(expr)-1] == q && !strings.ContainsRune(expr[1:len(expr)-1], rune(q))
}

// unquote strips the surrounding quotes of a string literal.
func unquote(expr string) string {
	expr = strings.TrimSpace(expr)
	if isStringLiteral(expr) {
		return expr[1 : len(expr)-1]
	}
	return expr
}
