package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"paystubdl/pkg/auth"
	"paystubdl/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored portal password",
	Long: `Store the ADP portal password outside the config file.

Passwords are kept in the system keychain when one is available, otherwise in
an encrypted file under the user config directory. PAYSTUBDL_USERNAME and
PAYSTUBDL_PASSWORD are read as a last resort.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a portal password",
	Example: `  # Prompt for username and password
  paystubdl auth login

  # Prompt for the password only
  paystubdl auth login jdoe`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove a stored portal password",
	Args:  cobra.ExactArgs(1),
	Run:   runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored accounts",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	var name string
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == "" {
		name, err = prompt(reader, ui.Stdout, "Portal username: ")
		if err != nil {
			ui.PrintError("Failed to read username", err.Error())
			os.Exit(1)
		}
	}

	fmt.Fprint(ui.Stdout, "Portal password: ")
	password, err := readPassword(reader)
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}

	if err := manager.Store(&auth.Account{Username: name, Password: password}); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Password stored for " + name)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := strings.TrimSpace(args[0])
	if err := manager.Delete(name); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No stored password for " + name)
			return
		}
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Removed stored password for " + name)
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	printAccounts(ui.Stdout, accounts)
}

// printAccounts lists accounts with their passwords masked
func printAccounts(w io.Writer, accounts []*auth.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No stored accounts")
		fmt.Fprintln(w, ui.Dim("keychain entries cannot be enumerated; 'auth login' to add one"))
		return
	}

	for _, account := range accounts {
		safe := auth.SanitizeAccount(account)
		updated := "unknown"
		if !safe.LastModified.IsZero() {
			updated = safe.LastModified.Format(time.DateTime)
		}
		fmt.Fprintf(w, "  %s  %s  %s\n", ui.Cyan(safe.Username), safe.Password, ui.Dim("updated "+updated))
	}
}

// prompt prints label and reads one trimmed line
func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo on a terminal and falls back to a
// plain line read for piped input
func readPassword(r *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Stdout)
		if err == nil {
			return string(password), nil
		}
	}

	return prompt(r, io.Discard, "")
}
