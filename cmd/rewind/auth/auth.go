// Package authcmder provides the auth command for managing the token
// signing secret and API tokens.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/rewind/pkg/authtoken"
	"github.com/papercomputeco/rewind/pkg/cliui"
	"github.com/papercomputeco/rewind/pkg/credentials"
)

const authLongDesc string = `Manage rewind authentication.

The signing secret lives in credentials.toml in the .rewind/ directory.
The API server verifies bearer tokens against it, so the serve command
and the token-minting side must share the same secret.

Examples:
  rewind auth secret               Prompt for the signing secret
  echo $SECRET | rewind auth secret  Pipe the secret from stdin
  rewind auth token --user alice   Mint and store a token for alice
  rewind auth verify <token>       Verify a token and print its claims`

const authShortDesc string = "Manage the signing secret and API tokens"

func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
	}

	cmd.AddCommand(newSecretCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newVerifyCmd())

	return cmd
}

const secretLongDesc string = `Store the token signing secret.

Prompts with hidden input when run interactively, or reads the first
line of stdin when piped. The secret is written to credentials.toml
with owner-only permissions.`

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store the token signing secret",
		Long:  secretLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSecret(configDir)
		},
	}

	return cmd
}

func runSecret(configDir string) error {
	secret, err := readSecret()
	if err != nil {
		return err
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetSecret(secret); err != nil {
		return err
	}

	fmt.Printf("\n  %s Stored signing secret %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render("("+mgr.GetTarget()+")"),
	)

	return nil
}

const tokenLongDesc string = `Mint an API token from the stored signing secret.

The token is printed and also stored in credentials.toml so commands
like "rewind ingest" can send it without further setup. Clients send
it as: Authorization: Bearer <token>`

func newTokenCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token",
		Long:  tokenLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runToken(user, configDir)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID to embed in the token")

	return cmd
}

func runToken(user, configDir string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return errors.New("--user is required")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	secret, err := mgr.GetSecret()
	if err != nil {
		return err
	}
	if secret == "" {
		return errors.New("no signing secret stored; run 'rewind auth secret' first")
	}

	token, err := authtoken.IssueToken([]byte(secret), user)
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	if err := mgr.SetToken(token); err != nil {
		return err
	}

	fmt.Printf("\n  %s Minted token for %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(user))
	fmt.Printf("  %s\n\n", token)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Stored in "+mgr.GetTarget()+"; send as: Authorization: Bearer <token>"))

	return nil
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runVerify(args[0], configDir)
		},
	}

	return cmd
}

func runVerify(token, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	secret, err := mgr.GetSecret()
	if err != nil {
		return err
	}
	if secret == "" {
		return errors.New("no signing secret stored; run 'rewind auth secret' first")
	}

	claims, err := authtoken.ParseToken([]byte(secret), token)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	issued := time.Unix(claims.IssuedAt, 0).UTC().Format(time.RFC3339)
	fmt.Printf("\n  %s Token is valid\n\n", cliui.SuccessMark)
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("User:  "), cliui.NameStyle.Render(claims.UserID))
	fmt.Printf("  %s  %s\n\n", cliui.KeyStyle.Render("Issued:"), cliui.ValueStyle.Render(issued))

	return nil
}

// readSecret reads the signing secret from stdin. If stdin is a pipe, it
// reads the first line. Otherwise, it prompts interactively with hidden input.
func readSecret() (string, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// Piped input
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return "", errors.New("no input received on stdin")
	}

	// Interactive terminal
	fmt.Print("Enter signing secret: ")

	secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}

	return string(secretBytes), nil
}
