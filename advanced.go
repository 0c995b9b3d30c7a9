package glideshift

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sliceutil "github.com/projectdiscovery/utils/slice"
)

// AdvancedStrategy handles sources carrying pattern combinations the simpler
// strategies do not cover. Each detected tag enables its own rule block; the
// naive rule list then runs over the partially rewritten code so imports,
// constructors and plain method calls still migrate.
type AdvancedStrategy struct {
	cfg  *Config
	tags []PatternTag
}

func NewAdvancedStrategy(cfg *Config, tags []PatternTag) *AdvancedStrategy {
	return &AdvancedStrategy{cfg: cfg, tags: tags}
}

func (s *AdvancedStrategy) Name() string {
	return "advanced"
}

var (
	reAdvStreams  = regexp.MustCompile(`(?i)stream|xadd`)
	reAdvBlocking = regexp.MustCompile(`(?i)blocking|blpop`)
)

func (s *AdvancedStrategy) Apply(src *Source) *StrategyResult {
	rc := newRuleContext(s.cfg, src.From)
	var rules []Rule
	if hasTag(s.tags, PatternLua) {
		rules = append(rules, Rule{Name: "advanced-lua", Rewrite: rewriteAdvancedLua,
			Warning: "lua invocation semantics changed: scripts are loaded once as Script objects and executed against a client",
			Note:    "verify hoisted Script declarations sit next to their call sites"})
	}
	if hasTag(s.tags, PatternPubSub) {
		rules = append(rules, Rule{Name: "advanced-pubsub", Rewrite: rewriteAdvancedPubSub,
			Warning: "pub/sub delivery is poll-based in the target client; the generated loop must run on a dedicated task",
			Note:    "subscriptions were moved to client construction time via pubsubSubscriptions"})
	}
	if hasTag(s.tags, PatternStreams) {
		rules = append(rules, Rule{Name: "advanced-streams", Pattern: reAdvStreams, Rewrite: keepCode,
			Note: "stream commands map one to one (xadd, xread, xack); verify consumer-group options by hand"})
	}
	if hasTag(s.tags, PatternBlocking) {
		rules = append(rules, Rule{Name: "advanced-blocking", Pattern: reAdvBlocking, Rewrite: keepCode,
			Warning: "blocking commands hold a connection; size the client pool accordingly"})
	}
	code := rc.applyRules(src.Code, rules)
	code = applyNaiveRules(rc, code)
	// symbols queued by the sub-transforms extend the import line only after
	// the naive pass has rewritten it, so the module is imported once
	if len(rc.pendingImports) > 0 {
		code = ensureGlideImport(code, sliceutil.Dedupe(rc.pendingImports)...)
	}
	return rc.result(transformCommon(code))
}

// rewriteAdvancedLua hoists every eval() call into a Script object executed
// against its receiver. Both the positional numKeys form and the
// { keys, arguments } options form are handled; anything else is left in
// place with a warning.
func rewriteAdvancedLua(rc *ruleContext, code string) string {
	if strings.Contains(code, ".evalsha(") {
		rc.warnf("evalsha() has no direct equivalent; load the script body into a Script object instead")
	}
	type evalCall struct {
		recvStart, start, end int
		parts                 []string
	}
	var calls []evalCall
	for from := 0; ; {
		start, end, args, ok := findCall(code, ".eval(", from)
		if !ok {
			break
		}
		recvStart := start
		for recvStart > 0 && isIdentByte(code[recvStart-1]) {
			recvStart--
		}
		calls = append(calls, evalCall{recvStart: recvStart, start: start, end: end, parts: splitArgs(args)})
		from = end
	}
	var decls []string
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]
		keys, args, ok := evalKeysAndArgs(call.parts)
		if !ok {
			rc.warnf("eval() call could not be decomposed; rewrite it to a Script object manually")
			continue
		}
		receiver := code[call.recvStart:call.start]
		if receiver == "" {
			rc.warnf("eval() receiver could not be determined; rewrite it to a Script object manually")
			continue
		}
		name := rc.nextScriptName()
		decls = append(decls, fmt.Sprintf("const %v = new Script(%v);", name, call.parts[0]))
		replacement := fmt.Sprintf("%v.execute(%v, { keys: %v, args: %v })", name, receiver, keys, args)
		if !strings.HasSuffix(code[:call.recvStart], "await ") {
			replacement = "await " + replacement
		}
		code = code[:call.recvStart] + replacement + code[call.end:]
	}
	for _, decl := range decls {
		code = insertAfterImports(code, decl)
	}
	if len(decls) > 0 {
		rc.needImport("Script")
	}
	return code
}

// evalKeysAndArgs extracts the key and argument lists from a split eval()
// argument vector, whichever calling convention the source used.
func evalKeysAndArgs(parts []string) (keys, args string, ok bool) {
	if len(parts) == 2 && strings.HasPrefix(parts[1], "{") {
		keys, args = "[]", "[]"
		if m := reKeysOption.FindStringSubmatch(parts[1]); m != nil {
			keys = m[1]
		}
		if m := reArgsOption.FindStringSubmatch(parts[1]); m != nil {
			args = m[1]
		}
		return keys, args, true
	}
	if len(parts) >= 2 {
		numKeys, err := strconv.Atoi(parts[1])
		if err == nil && numKeys >= 0 && numKeys <= len(parts)-2 {
			keys = "[" + strings.Join(parts[2:2+numKeys], ", ") + "]"
			args = "[" + strings.Join(parts[2+numKeys:], ", ") + "]"
			return keys, args, true
		}
	}
	return "", "", false
}

func isIdentByte(ch byte) bool {
	return ch == '_' || ch == '$' || ch == '.' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// rewriteAdvancedPubSub migrates publish/subscribe usage. Channel names are
// collected from subscribe call sites and declared at client construction;
// message handlers become a polling loop over getPubSubMessage().
func rewriteAdvancedPubSub(rc *ruleContext, code string) string {
	exact, patterns := collectChannels(code)
	if len(exact) == 0 && len(patterns) == 0 {
		return code
	}
	injected, ok := injectPubSubConfig(code, pubSubConfigLiteral(exact, patterns))
	if !ok {
		rc.warnf("no client construction site found for pubsubSubscriptions; declare the subscription config manually")
		return code
	}
	code = injected
	code = rewriteSubscribeStatements(rc, code)
	code = rewriteMessageHandlers(code)
	code = rewritePublishArgOrder(code)
	rc.needImport("PubSubChannelModes")
	return code
}

var subscribePrefixes = []struct {
	prefix  string
	pattern bool
}{
	{".subscribe(", false},
	{".psubscribe(", true},
	{".pSubscribe(", true},
}

// collectChannels gathers string-literal channel arguments from every
// subscribe call site, deduplicated in first-seen order.
func collectChannels(code string) (exact, patterns []string) {
	for _, sp := range subscribePrefixes {
		for from := 0; ; {
			_, end, args, ok := findCall(code, sp.prefix, from)
			if !ok {
				break
			}
			for _, part := range splitArgs(args) {
				if !isStringLiteral(part) {
					continue
				}
				if sp.pattern {
					patterns = append(patterns, unquote(part))
				} else {
					exact = append(exact, unquote(part))
				}
			}
			from = end
		}
	}
	return sliceutil.Dedupe(exact), sliceutil.Dedupe(patterns)
}

func pubSubConfigLiteral(exact, patterns []string) string {
	var modes []string
	if len(exact) > 0 {
		modes = append(modes, "[PubSubChannelModes.Exact]: new Set(["+quoteJoin(exact)+"])")
	}
	if len(patterns) > 0 {
		modes = append(modes, "[PubSubChannelModes.Pattern]: new Set(["+quoteJoin(patterns)+"])")
	}
	return "pubsubSubscriptions: { channelsAndPatterns: { " + strings.Join(modes, ", ") + " } }"
}

func quoteJoin(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, "'"+v+"'")
	}
	return strings.Join(quoted, ", ")
}

// injectPubSubConfig places the subscription field into the first client
// construction site, skipping value-type constructor bindings. Only empty and
// object-literal argument shapes are injectable; positional constructors are
// reported by the caller.
func injectPubSubConfig(code, field string) (string, bool) {
	for _, loc := range reClientAssign.FindAllStringSubmatchIndex(code, -1) {
		if loc[6] != -1 && isValueCtor(code[loc[6]:loc[7]]) {
			continue
		}
		open := strings.IndexByte(code[loc[0]:], '(')
		if open == -1 {
			return code, false
		}
		open += loc[0]
		end, ok := matchParen(code, open)
		if !ok {
			return code, false
		}
		inner := strings.TrimSpace(code[open+1 : end-1])
		switch {
		case inner == "":
			return code[:open+1] + "{ " + field + " }" + code[end-1:], true
		case strings.HasPrefix(inner, "{"):
			brace := open + 1 + strings.IndexByte(code[open+1:end], '{')
			return code[:brace+1] + " " + field + "," + code[brace+1:], true
		}
		return code, false
	}
	return code, false
}

// rewriteSubscribeStatements replaces each subscribe call statement. Calls
// that carry a message callback become a polling loop reusing the callback
// body; plain channel registrations become a pointer comment.
func rewriteSubscribeStatements(rc *ruleContext, code string) string {
	for _, sp := range subscribePrefixes {
		for from := 0; ; {
			start, end, args, ok := findCall(code, sp.prefix, from)
			if !ok {
				break
			}
			stStart, stEnd, indent := statementSpan(code, start, end)
			receiver := receiverBefore(code, start)
			replacement := indent + "// channels declared at client construction (pubsubSubscriptions)"
			// only node-redis passes the message listener to subscribe();
			// ioredis arrow arguments are acknowledgment callbacks
			if rc.from == ClientNodeRedis {
				for _, part := range splitArgs(args) {
					if params, body, ok := arrowParts(part); ok {
						// node-redis listener signature is (message, channel)
						replacement = pollingLoop(indent, receiver, params, []string{"message", "channel"}, body)
						break
					}
				}
			}
			code = code[:stStart] + replacement + code[stEnd:]
			from = stStart + len(replacement)
		}
	}
	return code
}

var reOnMessage = regexp.MustCompile(`\.on\(\s*['"](p?message)['"]\s*,`)

// rewriteMessageHandlers converts on('message')/on('pmessage') registrations
// into polling loops over getPubSubMessage().
func rewriteMessageHandlers(code string) string {
	for from := 0; ; {
		loc := reOnMessage.FindStringSubmatchIndex(code[from:])
		if loc == nil {
			break
		}
		for i := range loc {
			loc[i] += from
		}
		start, end, args, ok := findCall(code, ".on(", loc[0])
		if !ok {
			break
		}
		parts := splitArgs(args)
		if len(parts) != 2 {
			from = end
			continue
		}
		params, body, ok := arrowParts(parts[1])
		if !ok {
			from = end
			continue
		}
		fields := []string{"channel", "message"}
		if code[loc[2]:loc[3]] == "pmessage" {
			fields = []string{"pattern", "channel", "message"}
		}
		stStart, stEnd, indent := statementSpan(code, start, end)
		receiver := receiverBefore(code, start)
		loop := pollingLoop(indent, receiver, params, fields, body)
		code = code[:stStart] + loop + code[stEnd:]
		from = stStart + len(loop)
	}
	return code
}

// pollingLoop renders the getPubSubMessage consumption loop, binding the
// original handler parameters to message fields.
func pollingLoop(indent, receiver string, params, fields []string, body string) string {
	var b strings.Builder
	b.WriteString(indent + "while (true) {\n")
	b.WriteString(indent + "    const pubsubMessage = await " + receiver + ".getPubSubMessage();\n")
	for i, p := range params {
		if i >= len(fields) {
			break
		}
		b.WriteString(indent + "    const " + p + " = pubsubMessage." + fields[i] + ";\n")
	}
	body = strings.TrimSpace(body)
	if body != "" {
		for _, line := range strings.Split(body, "\n") {
			b.WriteString(indent + "    " + strings.TrimSpace(line) + "\n")
		}
	}
	b.WriteString(indent + "}")
	return b.String()
}

// rewritePublishArgOrder swaps publish(channel, message) into the target's
// publish(message, channel) order.
func rewritePublishArgOrder(code string) string {
	for from := 0; ; {
		start, end, args, ok := findCall(code, ".publish(", from)
		if !ok {
			break
		}
		parts := splitArgs(args)
		if len(parts) != 2 {
			from = end
			continue
		}
		replacement := ".publish(" + parts[1] + ", " + parts[0] + ")"
		code = code[:start] + replacement + code[end:]
		from = start + len(replacement)
	}
	return code
}

// receiverBefore returns the dotted identifier expression ending at offset.
func receiverBefore(code string, offset int) string {
	start := offset
	for start > 0 && isIdentByte(code[start-1]) {
		start--
	}
	if start == offset {
		return "client"
	}
	return code[start:offset]
}

// statementSpan widens a call span to its full statement: back to the line
// start and forward past a trailing semicolon.
func statementSpan(code string, callStart, callEnd int) (start, end int, indent string) {
	start = strings.LastIndexByte(code[:callStart], '\n') + 1
	lineEnd := strings.IndexByte(code[start:], '\n')
	if lineEnd == -1 {
		lineEnd = len(code) - start
	}
	indent = leadingWhitespace(code[start : start+lineEnd])
	end = callEnd
	for end < len(code) && (code[end] == ' ' || code[end] == '\t') {
		end++
	}
	if end < len(code) && code[end] == ';' {
		end++
	}
	return start, end, indent
}

// arrowParts decomposes an arrow-function expression into its parameter
// names and body text.
func arrowParts(expr string) (params []string, body string, ok bool) {
	expr = strings.TrimSpace(expr)
	arrow := strings.Index(expr, "=>")
	if arrow == -1 {
		return nil, "", false
	}
	head := strings.TrimSpace(expr[:arrow])
	head = strings.TrimPrefix(head, "async")
	head = strings.TrimSpace(head)
	head = strings.TrimPrefix(head, "(")
	head = strings.TrimSuffix(head, ")")
	for _, p := range strings.Split(head, ",") {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}
	body = strings.TrimSpace(expr[arrow+2:])
	if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
		body = body[1 : len(body)-1]
	}
	return params, body, true
}
