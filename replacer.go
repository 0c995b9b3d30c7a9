package glideshift

import (
	"fmt"
	"regexp"

	"github.com/projectdiscovery/fasttemplate"
)

const (
	// ParenthesisOpen marker - begin of a placeholder
	ParenthesisOpen = "{{"
	// ParenthesisClose marker - end of a placeholder
	ParenthesisClose = "}}"
)

// Replace replaces placeholders in a rewrite template with values on the fly.
func Replace(template string, values map[string]interface{}) string {
	valuesMap := make(map[string]interface{}, len(values))
	for k, v := range values {
		valuesMap[k] = fmt.Sprint(v)
	}
	return fasttemplate.ExecuteStringStd(template, ParenthesisOpen, ParenthesisClose, valuesMap)
}

// captureMap builds a placeholder map from the named capture groups of a
// matched pattern, so rewrite templates can reference groups as {{name}}.
func captureMap(re *regexp.Regexp, submatch []string) map[string]interface{} {
	values := map[string]interface{}{}
	for i, name := range re.SubexpNames() {
		if name == "" || i >= len(submatch) {
			continue
		}
		values[name] = submatch[i]
	}
	return values
}
