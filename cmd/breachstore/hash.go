package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/hashid"
	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
	"github.com/jamesainslie/breachstore/pkg/breachstore/pwned"
)

var hashCmd = &cobra.Command{
	Use:   "hash <token>",
	Short: "Identify the hash family of a token",
	Long: `Identify a hash by its shape, e.g. MD5, SHA-1, bcrypt or NTLM.
Ambiguous hex lengths report the most common family.`,
	Args: cobra.ExactArgs(1),
	RunE: runHash,
}

var pwnedCmd = &cobra.Command{
	Use:   "pwned [password]",
	Short: "Check a password against the Pwned Passwords range API",
	Long: `Check whether a password appears in the Pwned Passwords corpus. Only
the first five characters of its SHA-1 digest are sent. Without an
argument the password is read from the first line of stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPwned,
}

var pwnedAPI string

func init() {
	pwnedCmd.Flags().StringVar(&pwnedAPI, "api", pwned.DefaultBaseURL, "range API base URL")
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(pwnedCmd)
}

func runHash(cmd *cobra.Command, args []string) error {
	token := strings.TrimSpace(args[0])
	return render(cmd, output.Hash(token, hashid.Detect(token)))
}

func runPwned(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		sc := bufio.NewScanner(cmd.InOrStdin())
		if sc.Scan() {
			password = strings.TrimRight(sc.Text(), "\r")
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}
	if password == "" {
		return pwned.ErrEmptyPassword
	}

	client := pwned.New(pwned.WithBaseURL(pwnedAPI), pwned.WithUserAgent("breachstore/"+version))
	res, err := client.Check(cmd.Context(), password)
	return render(cmd, output.Pwned(res, err))
}
