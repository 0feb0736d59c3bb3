package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/kupferbootstrap/kupferbootstrap/internal"
	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/plog"
)

// RootCmd is the root command for the kupferbootstrap CLI.
var RootCmd struct {
	Quiet   bool   `short:"q" help:"Suppress informational output."`
	Verbose bool   `short:"v" help:"Enable verbose output."`
	Debug   bool   `short:"d" help:"Enable debug output."`
	Config  string `short:"c" help:"Override the default config file path." placeholder:"PATH"`

	Packages PackagesCmd `cmd:"" help:"Build and manage packages and PKGBUILDs."`
	Chroot   ChrootCmd   `cmd:"" help:"Initialize and enter a base or build chroot."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// logHandler is the process-wide handler configureLogger adjusts once
// flags are parsed.
var logHandler = plog.NewHandler()

func init() {
	slog.SetDefault(slog.New(logHandler))
}

// Execute parses arguments, configures logging, and runs the selected
// subcommand. Every chroot any command activated is deactivated before
// returning, whether the command succeeded, failed, or was interrupted
// (SIGINT/SIGTERM cancel the bound context, the command returns, and
// the deferred cleanup still runs).
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Cross-architecture Linux distribution bootstrap tool.\n\nBuilds Arch-style packages inside chroots and manages the resulting repositories."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	defer chroot.Cleanup()
	return kongCtx.Run()
}

// configureLogger adjusts the global handler's level and formatter
// based on the parsed flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	formatter := plog.NewPrettyFormatter(isatty(os.Stderr))
	formatter.SetVerbose(verbose)

	switch {
	case debug:
		logHandler.SetLevel(slog.LevelDebug)
	case quiet:
		logHandler.SetLevel(slog.LevelWarn)
	default:
		logHandler.SetLevel(slog.LevelInfo)
	}

	logHandler.SetFormatter(formatter)
	logHandler.SetStream(os.Stderr)
	logHandler.Flush()
}

// isatty reports whether f is an interactive terminal.
func isatty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
