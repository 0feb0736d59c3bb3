// Package cli parses arguments and configures logging for the
// kupferbootstrap command-line tool.
//
// It accepts the following global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//	-c, --config    Path to the config file to load.
//
// Flags override build-time defaults set via linker flags. After
// parsing, the global logger is reconfigured to reflect the final level
// and verbosity before the selected subcommand runs. The package stays a
// thin shell: every subcommand delegates immediately into
// internal/recipe, internal/depgraph, internal/chroot,
// internal/scheduler, or internal/repo rather than growing business
// logic of its own.
package cli
