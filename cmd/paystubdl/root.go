package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"paystubdl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "paystubdl",
	Short: "Download ADP pay statements as PDFs",
	Long: `paystubdl mirrors your ADP pay statements into a local directory tree.

Statements are stored as <output>/<year>/<payDate>.pdf. Files already on disk are
never downloaded again, so the tool is safe to run from cron. Once a run of
already downloaded statements is seen the pass stops early.

Credentials come from the config file, PAYSTUBDL_* environment variables, or the
password stored with 'paystubdl auth login'.`,
	Example: `  # Download this year's statements into the current directory
  paystubdl

  # Download everything into ~/paystubs
  paystubdl --only-year all --output ~/paystubs

  # Check stored files
  paystubdl verify --output ~/paystubs`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
	},
	Args: cobra.NoArgs,
	Run:  runFetch,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default $HOME/.adp-downloader-config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "shorthand for --log-level debug")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(ui.Stdout, "paystubdl %s\n", version)
		fmt.Fprintf(ui.Stdout, "  commit: %s\n", gitCommit)
		fmt.Fprintf(ui.Stdout, "  built:  %s\n", buildDate)
		fmt.Fprintf(ui.Stdout, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
