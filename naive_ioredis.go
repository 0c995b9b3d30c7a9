package glideshift

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Ordered rule list for ioredis sources. Import rewrites run before
// constructor rewrites, which run before method rewrites; URL constructors
// must be consumed before the generic object constructor so neither
// double-matches.
func ioredisRules() []Rule {
	return []Rule{
		{Name: "ioredis-import", Rewrite: rewriteIORedisImport},
		{Name: "ioredis-require", Rewrite: rewriteIORedisRequire},
		{Name: "ioredis-bare-constructor", Rewrite: rewriteBareConstructor},
		{Name: "ioredis-positional-constructor", Rewrite: rewritePositionalConstructor},
		{Name: "ioredis-url-constructor", Rewrite: rewriteURLConstructor},
		{Name: "ioredis-dynamic-url-constructor", Rewrite: rewriteDynamicURLConstructor,
			Note: "connection URL is computed at runtime; a parseRedisUrl reference implementation was added near the imports"},
		{Name: "ioredis-object-constructor", Rewrite: rewriteObjectConstructor},
		{Name: "ioredis-retry-constructor", Rewrite: rewriteRetryConstructor,
			Note: "retryStrategy has no direct equivalent; configure connectionBackoff on the target client instead"},
		{Name: "ioredis-setex", Pattern: reSetex,
			Template: ".set({{key}}, {{value}}, { expiry: { type: 'EX', count: {{ttl}} } })"},
		{Name: "ioredis-psetex", Pattern: rePsetex,
			Template: ".set({{key}}, {{value}}, { expiry: { type: 'PX', count: {{ttl}} } })"},
		{Name: "pipeline-binding", Rewrite: rewritePipelineBinding},
		{Name: "tracked-exec", Rewrite: rewriteTrackedExec},
		{Name: "unbound-pipeline", Rewrite: rewriteUnboundPipeline,
			Warning: "pipeline() was not bound to a variable; it was rewritten to an anonymous Transaction that must be executed via <client>.exec(<transaction>)"},
		{Name: "close-through-client", Rewrite: rewriteCloseThroughClient},
		{Name: "conditional-set", Rewrite: rewriteConditionalSet},
		{Name: "options-conditional-set", Rewrite: rewriteOptionsConditionalSet},
		{Name: "spread-mget", Pattern: reSpreadMget, Template: ".mget({{arr}})"},
		{Name: "eval-script", Rewrite: rewriteEvalNumKeys,
			Note: "inline eval() was hoisted into a reusable Script object invoked via invokeScript"},
		{Name: "subscribe-note", Rewrite: rewriteSubscribeCallSites,
			Note: "subscribe()/psubscribe() call sites were replaced with pointer comments; subscriptions are declared at client construction time on the target client"},
		{Name: "blocking-aliases", Rewrite: rewriteBlockingAliases},
	}
}

var (
	reIORImport  = regexp.MustCompile(`(?m)^[ \t]*import\s+([A-Za-z_$][\w$]*)\s+from\s+['"]ioredis['"];?`)
	reIORRequire = regexp.MustCompile(`(?m)^[ \t]*(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*require\(\s*['"]ioredis['"]\s*\);?`)

	reSetex = regexp.MustCompile(`\.setex\(\s*(?P<key>[^,()]+?)\s*,\s*(?P<ttl>[^,()]+?)\s*,\s*(?P<value>[^,()]+?)\s*\)`)

	rePsetex = regexp.MustCompile(`\.psetex\(\s*(?P<key>[^,()]+?)\s*,\s*(?P<ttl>[^,()]+?)\s*,\s*(?P<value>[^,()]+?)\s*\)`)

	rePipelineBind = regexp.MustCompile(`(?m)(const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*([\w$.]+)\.pipeline\(\s*\)`)

	reUnboundPipeline = regexp.MustCompile(`[\w$.]+\.pipeline\(\s*\)`)

	reQuitClose = regexp.MustCompile(`([\w$]+)\.(?:quit|disconnect)\(\s*\)`)

	reCondSet = regexp.MustCompile(`\.set\(\s*([^,()]+?)\s*,\s*([^,()]+?)\s*,\s*['"](EX|PX)['"]\s*,\s*([^,()]+?)\s*,\s*['"](NX|XX)['"]\s*\)`)

	reOptsCondSet = regexp.MustCompile(`\.set\(\s*([^,()]+?)\s*,\s*([^,()]+?)\s*,\s*\{([^{}]*\b(?:NX|XX)\s*:\s*true[^{}]*)\}\s*\)`)

	reSpreadMget = regexp.MustCompile(`\.mget\(\s*\.\.\.\s*(?P<arr>[\w$]+)\s*\)`)

	reSubscribeLine = regexp.MustCompile(`(?m)^([ \t]*)[^\n]*\.p?subscribe\([^\n]*$`)

	reHostField     = regexp.MustCompile(`\bhost\s*:\s*['"]([^'"]+)['"]`)
	rePortField     = regexp.MustCompile(`\bport\s*:\s*(\d+)`)
	reUsernameField = regexp.MustCompile(`\busername\s*:\s*['"]([^'"]+)['"]`)
	rePasswordField = regexp.MustCompile(`\bpassword\s*:\s*['"]([^'"]+)['"]`)
	reTLSField      = regexp.MustCompile(`\btls\s*:\s*(?:\{|true)`)
	reDBField       = regexp.MustCompile(`\bdb\s*:\s*(\d+)`)
)

const parseRedisURLSnippet = `// parseRedisUrl reference (translate the connection URL at runtime):
// function parseRedisUrl(url) {
//   const u = new URL(url);
//   const conf = {
//     addresses: [{ host: u.hostname, port: Number(u.port || 6379) }],
//     useTLS: u.protocol === 'rediss:',
//   };
//   if (u.username || u.password) {
//     conf.credentials = { username: u.username || undefined, password: u.password };
//   }
//   return conf;
// }`

const subscribeExplainer = `/*
 * Pub/sub migration note: the target client declares subscriptions in the
 * factory configuration (pubsubSubscriptions) at construction time instead
 * of calling subscribe()/psubscribe() on a live connection. Move the
 * channels from the pointer comments below into the createClient() call and
 * read messages with getPubSubMessage().
 */`

func rewriteIORedisImport(rc *ruleContext, code string) string {
	return reIORImport.ReplaceAllStringFunc(code, func(m string) string {
		if sub := reIORImport.FindStringSubmatch(m); len(sub) > 1 && sub[1] != "" {
			rc.clientSymbol = sub[1]
		}
		return glideImport
	})
}

func rewriteIORedisRequire(rc *ruleContext, code string) string {
	return reIORRequire.ReplaceAllStringFunc(code, func(m string) string {
		if sub := reIORRequire.FindStringSubmatch(m); len(sub) > 1 && sub[1] != "" {
			rc.clientSymbol = sub[1]
		}
		return glideRequire
	})
}

// defaultFactory renders the async factory call with the default address.
func (rc *ruleContext) defaultFactory() string {
	return fmt.Sprintf("await GlideClient.createClient({ addresses: [{ host: '%v', port: %v }] })",
		rc.cfg.DefaultHost, rc.cfg.DefaultPort)
}

func (rc *ruleContext) ctorRegex(argPattern string) *regexp.Regexp {
	return regexp.MustCompile(`new\s+` + regexp.QuoteMeta(rc.clientSymbol) + argPattern)
}

func rewriteBareConstructor(rc *ruleContext, code string) string {
	return rc.ctorRegex(`\s*\(\s*\)`).ReplaceAllString(code, rc.defaultFactory())
}

func rewritePositionalConstructor(rc *ruleContext, code string) string {
	re := rc.ctorRegex(`\s*\(\s*(\d+)\s*,\s*['"]([^'"]+)['"]\s*\)`)
	return re.ReplaceAllString(code,
		"await GlideClient.createClient({ addresses: [{ host: '$2', port: $1 }] })")
}

func rewriteURLConstructor(rc *ruleContext, code string) string {
	re := rc.ctorRegex(`\s*\(\s*['"](rediss?://[^'"]*)['"]\s*\)`)
	return re.ReplaceAllStringFunc(code, func(m string) string {
		sub := re.FindStringSubmatch(m)
		info, err := parseRedisURL(sub[1])
		if err != nil {
			rc.warnf("could not parse connection url %v: %v", sub[1], err)
			return m
		}
		return "await GlideClient.createClient(" + info.configLiteral() + ")"
	})
}

// rewriteDynamicURLConstructor handles constructors whose URL is computed at
// runtime (env vars, template literals). Static parsing is impossible, so the
// call defers to a runtime parser and a reference snippet is hoisted once.
func rewriteDynamicURLConstructor(rc *ruleContext, code string) string {
	re := rc.ctorRegex(`\s*\(\s*([A-Za-z_$][^(){}'"]*|` + "`[^`]*`" + `)\s*\)`)
	changed := false
	code = re.ReplaceAllStringFunc(code, func(m string) string {
		sub := re.FindStringSubmatch(m)
		expr := strings.TrimSpace(sub[1])
		if strings.Contains(expr, ",") {
			rc.warnf("constructor arguments %v could not be resolved statically; rewrite this client construction manually", expr)
			return m
		}
		changed = true
		return "await GlideClient.createClient(parseRedisUrl(" + expr + "))"
	})
	if changed && !strings.Contains(code, "parseRedisUrl reference") {
		code = insertAfterImports(code, parseRedisURLSnippet)
	}
	return code
}

func rewriteObjectConstructor(rc *ruleContext, code string) string {
	return rc.rewriteObjectCtor(code, false)
}

func rewriteRetryConstructor(rc *ruleContext, code string) string {
	return rc.rewriteObjectCtor(code, true)
}

// rewriteObjectCtor translates object-config constructors into factory calls,
// split across two rules so retry-carrying configs report their own note.
func (rc *ruleContext) rewriteObjectCtor(code string, withRetry bool) string {
	reStart := rc.ctorRegex(`\s*\(`)
	locs := reStart.FindAllStringIndex(code, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		open := locs[i][1] - 1
		end, ok := matchParen(code, open)
		if !ok {
			continue
		}
		inner := strings.TrimSpace(code[open+1 : end-1])
		if !strings.HasPrefix(inner, "{") || !strings.HasSuffix(inner, "}") {
			continue
		}
		if strings.Contains(inner, "retryStrategy") != withRetry {
			continue
		}
		body := inner[1 : len(inner)-1]
		replacement := "await GlideClient.createClient(" + rc.clientConfigFromObject(body) + ")"
		code = code[:locs[i][0]] + replacement + code[end:]
	}
	return code
}

// clientConfigFromObject maps a source config object body onto the factory
// configuration, carrying through fields the factory understands natively.
func (rc *ruleContext) clientConfigFromObject(body string) string {
	info := &connInfo{Host: rc.cfg.DefaultHost, Port: rc.cfg.DefaultPort}
	if m := reHostField.FindStringSubmatch(body); m != nil {
		info.Host = m[1]
	}
	if m := rePortField.FindStringSubmatch(body); m != nil {
		info.Port, _ = strconv.Atoi(m[1])
	}
	if m := reUsernameField.FindStringSubmatch(body); m != nil {
		info.Username = m[1]
	}
	if m := rePasswordField.FindStringSubmatch(body); m != nil {
		info.Password = m[1]
	}
	if reTLSField.MatchString(body) {
		info.TLS = true
	}
	conf := info.configLiteral()
	var extras []string
	if m := reDBField.FindStringSubmatch(body); m != nil {
		extras = append(extras, "databaseId: "+m[1])
	}
	rest := body
	for _, field := range []string{
		"host", "port", "username", "password", "tls", "db", "url", "socket",
		"retryStrategy", "reconnectStrategy", "connectTimeout",
		"maxRetriesPerRequest", "lazyConnect", "enableOfflineQueue",
	} {
		rest = removeObjectField(rest, field)
	}
	if rest = strings.Trim(rest, " \t\r\n,"); rest != "" {
		extras = append(extras, rest)
	}
	if len(extras) > 0 {
		conf = strings.TrimSuffix(conf, " }") + ", " + strings.Join(extras, ", ") + " }"
	}
	return conf
}

func rewritePipelineBinding(rc *ruleContext, code string) string {
	locs := rePipelineBind.FindAllStringSubmatchIndex(code, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		kw := code[loc[2]:loc[3]]
		txVar := code[loc[4]:loc[5]]
		receiver := code[loc[6]:loc[7]]
		owner := nearestClientVar(code, loc[0])
		if owner == "" {
			owner = receiver
		}
		rc.track(txVar, owner)
		code = code[:loc[0]] + kw + " " + txVar + " = new Transaction()" + code[loc[1]:]
	}
	if len(locs) > 0 {
		code = ensureGlideImport(code, "Transaction")
	}
	return code
}

// rewriteTrackedExec routes exec() calls on tracked transaction variables
// through the owning client.
func rewriteTrackedExec(rc *ruleContext, code string) string {
	for _, tx := range rc.txOrder {
		owner := rc.transactions[tx]
		re := regexp.MustCompile(`(?:await\s+)?` + regexp.QuoteMeta(tx) + `\.exec\(\s*\)`)
		code = re.ReplaceAllString(code, "await "+owner+".exec("+tx+")")
	}
	return code
}

func rewriteUnboundPipeline(rc *ruleContext, code string) string {
	if !reUnboundPipeline.MatchString(code) {
		return code
	}
	code = reUnboundPipeline.ReplaceAllString(code, "new Transaction()")
	return ensureGlideImport(code, "Transaction")
}

// rewriteCloseThroughClient redirects quit()/disconnect() to close() on the
// client variable discovered by the backward scan.
func rewriteCloseThroughClient(rc *ruleContext, code string) string {
	locs := reQuitClose.FindAllStringSubmatchIndex(code, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		receiver := code[loc[2]:loc[3]]
		owner := nearestClientVar(code, loc[0])
		if owner == "" {
			owner = receiver
		}
		code = code[:loc[0]] + owner + ".close()" + code[loc[1]:]
	}
	return code
}

var conditionalSetFlags = map[string]string{
	"NX": "onlyIfDoesNotExist",
	"XX": "onlyIfExists",
}

func rewriteConditionalSet(rc *ruleContext, code string) string {
	return reCondSet.ReplaceAllStringFunc(code, func(m string) string {
		sub := reCondSet.FindStringSubmatch(m)
		return fmt.Sprintf(".set(%v, %v, { expiry: { type: '%v', count: %v }, conditionalSet: '%v' })",
			sub[1], sub[2], sub[3], sub[4], conditionalSetFlags[sub[5]])
	})
}

func rewriteOptionsConditionalSet(rc *ruleContext, code string) string {
	return reOptsCondSet.ReplaceAllStringFunc(code, func(m string) string {
		sub := reOptsCondSet.FindStringSubmatch(m)
		opts, ok := setOptionsLiteral(sub[3])
		if !ok {
			return m
		}
		return fmt.Sprintf(".set(%v, %v, %v)", sub[1], sub[2], opts)
	})
}

var (
	reOptEX = regexp.MustCompile(`\bEX\s*:\s*([^,{}]+)`)
	reOptPX = regexp.MustCompile(`\bPX\s*:\s*([^,{}]+)`)
	reOptNX = regexp.MustCompile(`\bNX\s*:\s*true`)
	reOptXX = regexp.MustCompile(`\bXX\s*:\s*true`)
)

// setOptionsLiteral normalizes a source set() options object into the target
// option shape.
func setOptionsLiteral(opts string) (string, bool) {
	var parts []string
	if m := reOptEX.FindStringSubmatch(opts); m != nil {
		parts = append(parts, fmt.Sprintf("expiry: { type: 'EX', count: %v }", strings.TrimSpace(m[1])))
	} else if m := reOptPX.FindStringSubmatch(opts); m != nil {
		parts = append(parts, fmt.Sprintf("expiry: { type: 'PX', count: %v }", strings.TrimSpace(m[1])))
	}
	if reOptNX.MatchString(opts) {
		parts = append(parts, "conditionalSet: 'onlyIfDoesNotExist'")
	} else if reOptXX.MatchString(opts) {
		parts = append(parts, "conditionalSet: 'onlyIfExists'")
	}
	if len(parts) == 0 {
		return "", false
	}
	return "{ " + strings.Join(parts, ", ") + " }", true
}

// rewriteEvalNumKeys hoists eval(script, numKeys, ...args) calls into
// reusable Script objects, splitting the trailing arguments at numKeys.
func rewriteEvalNumKeys(rc *ruleContext, code string) string {
	type evalCall struct {
		start, end int
		parts      []string
	}
	var calls []evalCall
	for from := 0; ; {
		start, end, args, ok := findCall(code, ".eval(", from)
		if !ok {
			break
		}
		calls = append(calls, evalCall{start: start, end: end, parts: splitArgs(args)})
		from = end
	}
	var decls []string
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]
		if len(call.parts) < 2 {
			rc.warnf("eval() call is missing a key count; rewrite it to invokeScript manually")
			continue
		}
		numKeys, err := strconv.Atoi(call.parts[1])
		if err != nil || numKeys < 0 || numKeys > len(call.parts)-2 {
			rc.warnf("eval() key count %v is not a literal; rewrite it to invokeScript manually", call.parts[1])
			continue
		}
		name := rc.nextScriptName()
		keys := call.parts[2 : 2+numKeys]
		args := call.parts[2+numKeys:]
		decls = append(decls, fmt.Sprintf("const %v = new Script(%v);", name, call.parts[0]))
		replacement := fmt.Sprintf(".invokeScript(%v, { keys: [%v], args: [%v] })",
			name, strings.Join(keys, ", "), strings.Join(args, ", "))
		code = code[:call.start] + replacement + code[call.end:]
	}
	for _, decl := range decls {
		code = insertAfterImports(code, decl)
	}
	if len(decls) > 0 {
		code = ensureGlideImport(code, "Script")
	}
	return code
}

func (rc *ruleContext) nextScriptName() string {
	rc.hoistedScripts++
	if rc.hoistedScripts == 1 {
		return "luaScript"
	}
	return fmt.Sprintf("luaScript%v", rc.hoistedScripts)
}

// rewriteSubscribeCallSites prepends the pub/sub explainer and turns every
// subscribe()/psubscribe() call site into a pointer comment.
func rewriteSubscribeCallSites(rc *ruleContext, code string) string {
	if !strings.Contains(code, ".subscribe(") && !strings.Contains(code, ".psubscribe(") {
		return code
	}
	code = reSubscribeLine.ReplaceAllString(code,
		"${1}// subscription moved to client construction time (see note at top of file)")
	return subscribeExplainer + "\n" + code
}

// rewriteBlockingAliases renames blocking commands to their native target
// methods. Only brpoplpush changes shape: it becomes a blocking list move.
func rewriteBlockingAliases(rc *ruleContext, code string) string {
	fired := false
	for {
		start, end, args, ok := findCall(code, ".brpoplpush(", 0)
		if !ok {
			break
		}
		parts := splitArgs(args)
		if len(parts) != 3 {
			rc.warnf("brpoplpush call could not be rewritten automatically; use %v with explicit directions", rc.cfg.BlockingAliases["brpoplpush"])
			break
		}
		replacement := fmt.Sprintf(".%v(%v, %v, 'right', 'left', %v)",
			rc.cfg.BlockingAliases["brpoplpush"], parts[0], parts[1], parts[2])
		code = code[:start] + replacement + code[end:]
		fired = true
	}
	if fired {
		rc.notef("brpoplpush was rewritten to %v; verify the element-direction semantics", rc.cfg.BlockingAliases["brpoplpush"])
	}
	return code
}
