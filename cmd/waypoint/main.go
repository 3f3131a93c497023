package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	routesPath string
	s3Bucket   string
	s3Key      string
	verbose    bool
}

func main() {
	errors.DetectColors(os.Stderr)

	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "waypoint",
		Short: "Inspect and exercise waypoint route tables",
		Long: `Waypoint is a client-side navigation engine for Go.

This tool loads a route table and lets you:

  • print the route tree
  • resolve paths against it
  • simulate push, replace, back and forward against an in-memory history
  • serve an inspector with a live navigation stream`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to "+config.ConfigFileName+" (default: nearest in working directory)")
	rootCmd.PersistentFlags().StringVarP(&flags.routesPath, "routes", "r", "", "Route table file (overrides routes.file)")
	rootCmd.PersistentFlags().StringVar(&flags.s3Bucket, "s3-bucket", "", "Load the route table from this S3 bucket")
	rootCmd.PersistentFlags().StringVar(&flags.s3Key, "s3-key", "", "Object key of the route table in --s3-bucket")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		routesCmd(flags),
		resolveCmd(flags),
		simulateCmd(flags),
		inspectCmd(flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Println(successStyle.Render("✓") + " " + fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Println(warnStyle.Render("⚠") + " " + fmt.Sprintf(format, args...))
}
