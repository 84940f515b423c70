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

	"igreelbot/pkg/config"
)

// tokenCmd manages the bot token kept in the system keychain
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bot token stored in the system keychain",
	Long: `Store the Telegram bot token in the system keychain so it does not have
to live in the environment or a config file.

A token from flags, BOT_TOKEN, .env or the config file always takes precedence
over the stored one.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Prompt for a bot token and store it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), "Bot token: ")
		value, err := readSecret(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		if err := config.SaveToken(value); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Token stored in keychain")
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored bot token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := config.DeleteToken()
		if errors.Is(err, config.ErrTokenNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No token stored")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Token removed from keychain")
		return nil
	},
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a token is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.LoadToken()
		if errors.Is(err, config.ErrTokenNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No token stored")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token stored: %s\n", maskToken(value))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenClearCmd)
	tokenCmd.AddCommand(tokenStatusCmd)
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskToken keeps the bot id and the last few characters visible
func maskToken(t string) string {
	id, secret, found := strings.Cut(t, ":")
	if !found {
		id, secret = "", t
	}
	if len(secret) <= 4 {
		return id + ":****"
	}
	return id + ":****" + secret[len(secret)-4:]
}
