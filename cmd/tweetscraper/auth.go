package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tweetscraper/pkg/auth"
)

// defaultAccountName is used by 'auth login' when no name is given
const defaultAccountName = "default"

func (a *app) newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API bearer tokens",
		Long: `Manage stored Twitter API bearer tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - The ` + auth.BearerTokenEnv + ` environment variable (read-only)

Use a stored token with 'tweetscraper fetch --account <name>'.`,
	}

	authCmd.AddCommand(a.newLoginCmd())
	authCmd.AddCommand(a.newLogoutCmd())
	authCmd.AddCommand(a.newListCmd())

	return authCmd
}

func (a *app) newLoginCmd() *cobra.Command {
	var token string
	var guide bool

	cmd := &cobra.Command{
		Use:   "login [name]",
		Short: "Store a bearer token securely",
		Long: `Store a Twitter API bearer token in the system keychain or an encrypted file.

The token is read without echo from the terminal unless --token is given.
Without a name the token is stored as '` + defaultAccountName + `'.`,
		Example: `  # Interactive login
  tweetscraper auth login

  # Store a second token under its own name
  tweetscraper auth login work --token "$TOKEN"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultAccountName
			if len(args) > 0 {
				name = strings.TrimSpace(args[0])
			}
			return a.runLogin(cmd, name, token, guide)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "bearer token (skips the prompt)")
	cmd.Flags().BoolVar(&guide, "guide", false, "show detailed instructions for obtaining a token")
	return cmd
}

func (a *app) runLogin(cmd *cobra.Command, name, token string, guide bool) error {
	out := cmd.OutOrStdout()
	termOut := a.terminal(out)

	manager, err := a.newManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if token == "" {
		if guide {
			auth.ShowBearerTokenGuide(out)
		} else {
			auth.ShowQuickTokenGuide(out)
		}

		fmt.Fprint(out, "\nBearer token (input is hidden): ")
		token, err = readSecret(cmd.InOrStdin(), out)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("bearer token is required")
	}

	cred := &auth.Credential{Name: name, BearerToken: token}
	if err := manager.Store(cred); err != nil {
		return err
	}

	a.log.WithField("account", name).Info("Stored bearer token")
	termOut.PrintSuccess(fmt.Sprintf("Token saved as '%s' (%s)", name, auth.MaskToken(token)))
	fmt.Fprintf(out, "\nUse it with:\n  tweetscraper fetch <user-id> --account %s\n", name)
	return nil
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <name>",
		Short: "Remove a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := a.newManager()
			if err != nil {
				return fmt.Errorf("failed to initialize credential manager: %w", err)
			}

			name := args[0]
			if err := manager.Delete(name); err != nil {
				return err
			}

			a.log.WithField("account", name).Info("Removed bearer token")
			a.terminal(cmd.OutOrStdout()).PrintSuccess("Token removed: " + name)
			return nil
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored tokens",
		Long:  `List stored tokens with masked values. The token used by default is marked with '*'.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			termOut := a.terminal(out)

			manager, err := a.newManager()
			if err != nil {
				return fmt.Errorf("failed to initialize credential manager: %w", err)
			}

			creds, err := manager.List()
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}
			if len(creds) == 0 {
				termOut.PrintInfo("No stored tokens", "use 'tweetscraper auth login' to add one")
				return nil
			}

			defaultName := ""
			if def, err := manager.RetrieveDefault(); err == nil {
				defaultName = def.Name
			}

			termOut.PrintHighlight("Stored tokens")
			for _, cred := range creds {
				sanitized := auth.SanitizeCredential(cred)
				marker := " "
				if sanitized.Name == defaultName {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-16s %s  %s\n", marker, sanitized.Name, sanitized.BearerToken,
					sanitized.LastModified.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// readSecret reads a line without echo when in is a terminal
func readSecret(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err == nil {
			return string(secret), nil
		}
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
