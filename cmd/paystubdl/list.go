package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"paystubdl/pkg/paystubs"
	"paystubdl/pkg/portal"
	"paystubdl/pkg/storage"
	"paystubdl/pkg/ui"
)

// listCmd prints the portal index without downloading anything
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the pay statements the portal offers",
	Long: `Request the statement index and print each statement with the file it
would be saved to. Nothing is downloaded; year directories are not created.`,
	Args: cobra.NoArgs,
	Run:  runList,
}

func init() {
	f := listCmd.Flags()
	f.StringVarP(&username, "username", "u", "", "portal username")
	f.IntVar(&requestLimit, "request-limit", 0, "number of most recent pay dates to request (default 200)")
	f.StringVar(&onlyYear, "only-year", "", `mark statements outside this year, or "all" (default current year)`)
	f.StringVarP(&outputDir, "output", "o", "", "output directory (default .)")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	cfg, log, err := prepare(cmd)
	if err != nil {
		ui.PrintError("Setup failed", err.Error())
		os.Exit(1)
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := portal.NewClient(ctx, portal.OptionsFromConfig(cfg, log))
	if err != nil {
		ui.PrintError("Failed to open portal session", err.Error())
		stop()
		os.Exit(1)
	}

	statements, err := client.ListStatements(ctx, cfg.RequestLimit)
	if err != nil {
		ui.PrintError("Failed to list statements", err.Error())
		stop()
		os.Exit(1)
	}

	store := storage.NewReader(cfg.Download.OutputDir)
	retriever := paystubs.NewRetriever(client, store, paystubs.Options{OnlyYear: cfg.OnlyYear}, nil, log)

	if err := printIndex(retriever, store, statements); err != nil {
		ui.PrintError("Invalid statement index", err.Error())
		stop()
		os.Exit(1)
	}
}

// printIndex writes one row per statement: pay date, target file and
// whether it is already on disk
func printIndex(r *paystubs.Retriever, store *storage.Manager, statements []portal.PayStatement) error {
	w := tabwriter.NewWriter(ui.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAY DATE\tFILE\tSTATUS")

	for t, err := range r.Targets(statements) {
		if err != nil {
			w.Flush()
			return err
		}

		switch {
		case t.Filtered:
			fmt.Fprintf(w, "%s\t-\t%s\n", t.PayDate, ui.Dim("other year"))
		case store.Exists(t.Path):
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.PayDate, t.Path, ui.Green("present"))
		default:
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.PayDate, t.Path, ui.Yellow("missing"))
		}
	}

	return w.Flush()
}
