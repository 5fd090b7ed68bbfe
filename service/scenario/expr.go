package scenario

import (
	"os"
	"regexp"
)

// envPlaceholder matches ${env.KEY} where KEY is a run of letters, digits
// or underscores. The run may be empty; anything else is not a placeholder.
var envPlaceholder = regexp.MustCompile(`\$\{env\.([\p{L}\p{Nd}_]*)\}`)

// expandEnv substitutes every ${env.KEY} placeholder in a raw scenario
// document with the value of the KEY environment variable. Unset keys expand
// to the empty string. Text that merely resembles a placeholder, such as an
// unterminated ${env. or a key with punctuation, passes through verbatim.
func expandEnv(document string) string {
	return envPlaceholder.ReplaceAllStringFunc(document, func(match string) string {
		key := match[len("${env.") : len(match)-1]
		return os.Getenv(key)
	})
}
