// Package options holds the flag/config option groups of the server. Each
// group registers its flags under a dotted prefix that matches its key in
// the config file, e.g. "redis.host".
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join builds the flag prefix for prefixes, including the trailing dot.
// Join() and Join("") both return "".
func Join(prefixes ...string) string {
	var parts []string
	for _, p := range prefixes {
		if p = strings.Trim(p, "."); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".") + "."
}

// IOptions is implemented by every option group.
type IOptions interface {
	// Validate returns every problem found, nil when valid.
	Validate() []error

	// AddFlags registers the group's flags on fs under prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
