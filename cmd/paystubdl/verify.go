package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paystubdl/pkg/storage"
	"paystubdl/pkg/ui"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that stored statements are readable PDFs",
	Long: `Open every <year>/*.pdf under the output directory and report files that
are not valid PDFs, such as login pages saved by an expired session.
Bad files can be deleted; the next run downloads them again.`,
	Args: cobra.NoArgs,
	Run:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(verifyCmd)
}

// verifyOutputDir prefers --output so a tree can be checked without a
// complete configuration
func verifyOutputDir(cmd *cobra.Command) (string, error) {
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		return outputDir, nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Download.OutputDir, nil
}

func runVerify(cmd *cobra.Command, args []string) {
	dir, err := verifyOutputDir(cmd)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Verifying", dir)

	bad, total, err := storage.NewReader(dir).Verify()
	if err != nil {
		ui.PrintError("Verification failed", err.Error())
		os.Exit(1)
	}

	for _, r := range bad {
		fmt.Fprintf(ui.Stdout, "  %s %s: %v\n", ui.Red("✗"), r.Path, r.Err)
	}

	if len(bad) > 0 {
		ui.PrintError(fmt.Sprintf("%d of %d statements are not valid PDFs", len(bad), total))
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("%d statements OK", total))
}
