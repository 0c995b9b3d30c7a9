package glideshift

import "regexp"

// del/exists take key arrays on the target client. The captured argument
// text must not contain brackets so already-wrapped calls are left alone.
var (
	reDelBare    = regexp.MustCompile(`\.del\(\s*([^()\[\]]+?)\s*\)`)
	reExistsBare = regexp.MustCompile(`\.exists\(\s*([^()\[\]]+?)\s*\)`)
)

// transformCommon is the post-pass every strategy applies: it normalizes
// bare key arguments of del() and exists() into explicit array form.
func transformCommon(code string) string {
	code = reDelBare.ReplaceAllString(code, `.del([$1])`)
	code = reExistsBare.ReplaceAllString(code, `.exists([$1])`)
	return code
}
