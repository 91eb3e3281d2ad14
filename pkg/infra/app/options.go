package app

import "github.com/spf13/pflag"

// CliOptions is implemented by a service's root options struct. Its
// mapstructure tags define the config file layout, its flags the CLI.
type CliOptions interface {
	// AddFlags registers every option group's flags.
	AddFlags(fs *pflag.FlagSet)
	// Complete fills derived and environment-provided values.
	Complete() error
	// Validate returns an aggregate of all validation errors, or nil.
	Validate() error
}
