package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"paystubdl/pkg/auth"
	"paystubdl/pkg/config"
	errs "paystubdl/pkg/errors"
	"paystubdl/pkg/logger"
	"paystubdl/pkg/metrics"
	"paystubdl/pkg/paystubs"
	"paystubdl/pkg/portal"
	"paystubdl/pkg/storage"
	"paystubdl/pkg/ui"
)

var (
	// Fetch command flags, shared with the root command
	username      string
	requestLimit  int
	onlyYear      string
	outputDir     string
	maxSkips      int
	metricsFile   string
	notifications bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download pay statements that are not on disk yet",
	Long: `Download pay statements from the ADP portal.

The portal index is requested once, newest statements first. Each statement
of the selected year that is missing locally is saved as
<output>/<year>/<payDate>.pdf; repeated pay dates get -1, -2, ... appended.
This is also what runs when paystubdl is called without a subcommand.`,
	Example: `  # Everything the portal still lists
  paystubdl fetch --only-year all --request-limit 1000

  # Never stop early
  paystubdl fetch --max-skips 0`,
	Args: cobra.NoArgs,
	Run:  runFetch,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, fetchCmd} {
		f := c.Flags()
		f.StringVarP(&username, "username", "u", "", "portal username")
		f.IntVar(&requestLimit, "request-limit", 0, "number of most recent pay dates to request (default 200)")
		f.StringVar(&onlyYear, "only-year", "", `only download statements of this year, or "all" (default current year)`)
		f.StringVarP(&outputDir, "output", "o", "", "output directory (default .)")
		f.IntVar(&maxSkips, "max-skips", -1, "stop after this many consecutive existing files, 0 disables (default 10)")
		f.StringVar(&metricsFile, "metrics-file", "", "write run metrics to this node_exporter textfile")
		f.BoolVar(&notifications, "notifications", false, "send a desktop notification when the run ends")
	}

	rootCmd.AddCommand(fetchCmd)
}

// commandLineFlags collects the flags the user actually set, keyed the
// way config.MergeCommandLineFlags expects
func commandLineFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("username") {
		flags["username"] = username
	}
	if changed("request-limit") {
		flags["request-limit"] = requestLimit
	}
	if changed("only-year") {
		flags["only-year"] = onlyYear
	}
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("max-skips") {
		flags["max-skips"] = maxSkips
	}
	if changed("metrics-file") {
		flags["metrics-file"] = metricsFile
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if debug {
		flags["log-level"] = "debug"
	}

	return flags
}

// loadConfig loads the configuration and applies the command's flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("notifications"); f != nil && f.Changed {
		cfg.Notifications.Enabled = notifications
	}

	return cfg, nil
}

// resolvePassword fills in cfg.Password from the credential stores when
// neither the config file nor the environment provided one
func resolvePassword(cfg *config.Config, manager *auth.Manager) error {
	if cfg.Password != "" {
		return nil
	}

	account, err := manager.Retrieve(cfg.Username)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return errs.New(errs.ErrorTypeAuth, "no password configured for "+cfg.Username+" (run 'paystubdl auth login')")
		}
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to read stored password")
	}

	cfg.Password = account.Password
	return nil
}

// prepare loads configuration, sets up logging and resolves credentials.
// Every command that talks to the portal starts here.
func prepare(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, errs.Wrap(errs.ErrorTypeConfig, err, "failed to initialize logger")
	}
	log := logger.GetLogger()

	if cfg.Password == "" {
		manager, err := auth.NewManager()
		if err != nil {
			return nil, nil, errs.Wrap(errs.ErrorTypeAuth, err, "failed to open credential store")
		}
		if err := resolvePassword(cfg, manager); err != nil {
			return nil, nil, err
		}
	}

	return cfg, log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStorage creates the output tree, validating downloads as PDFs when configured
func openStorage(cfg *config.Config) (*storage.Manager, error) {
	var validate storage.Validator
	if cfg.Download.VerifyPDF {
		validate = storage.ValidatePDF
	}
	return storage.NewManager(cfg.Download.OutputDir, validate)
}

// fetch runs one complete retrieval pass against the portal
func fetch(ctx context.Context, cfg *config.Config, log logger.Logger) (*paystubs.Result, error) {
	client, err := portal.NewClient(ctx, portal.OptionsFromConfig(cfg, log))
	if err != nil {
		return nil, err
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	run := metrics.NewRun()
	retriever := paystubs.NewRetriever(client, store, paystubs.Options{
		OnlyYear:            cfg.OnlyYear,
		MaxConsecutiveSkips: cfg.Download.MaxConsecutiveSkips,
	}, run, log)

	statements, err := client.ListStatements(ctx, cfg.RequestLimit)
	if err != nil {
		return nil, err
	}

	result, err := retriever.DownloadAll(ctx, statements)
	if err != nil {
		return result, err
	}

	if cfg.Metrics.Textfile != "" {
		if err := run.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return result, err
		}
	}

	return result, nil
}

func runFetch(cmd *cobra.Command, args []string) {
	cfg, log, err := prepare(cmd)
	if err != nil {
		ui.PrintError("Setup failed", err.Error())
		os.Exit(1)
	}

	notifier := ui.NewNotifier(cfg.Notifications.Enabled)
	log.WithFields(map[string]interface{}{
		"version":  version,
		"username": cfg.Username,
		"output":   cfg.Download.OutputDir,
	}).Info("paystubdl starting")

	ctx, stop := signalContext()
	defer stop()

	result, err := fetch(ctx, cfg, log)
	if err != nil {
		log.WithError(err).WithField("type", string(errs.TypeOf(err))).Error("Run failed")
		_ = notifier.RunFailed(err)
		ui.PrintError("Download failed", err.Error())
		stop()
		os.Exit(1)
	}

	summary := ui.RunSummary{
		Listed:       result.Listed,
		Downloaded:   result.Downloaded,
		Skipped:      result.Skipped,
		Filtered:     result.Filtered,
		StoppedEarly: result.StoppedEarly,
	}
	ui.PrintRunSummary(summary)
	_ = notifier.RunComplete(summary)
}
