package commands

import (
	"KeyVault/internal/cli/api"
	"KeyVault/internal/config"
	"context"
	"errors"
	"fmt"
	"strings"
)

// Exit codes returned by Dispatch.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const loginHint = "run: keyvault-cli login <username> <password>"

// Dispatch runs the command named by args[0] and returns the process exit code.
// Commands that need a session are refused without a stored token, and a token
// the server rejects is removed so the next call does not retry it.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage(cfg))
		return ExitUsage
	}

	name := strings.ToLower(args[0])
	if name == "help" || name == "-h" || name == "--help" {
		return help(cfg, args[1:])
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage(cfg))
		return ExitUsage
	}
	if wantsHelp(args[1:]) {
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return ExitOK
	}

	if c.NeedsSession() {
		if _, err := authStore(cfg).Load(); err != nil {
			fmt.Fprintf(Out, "%s: not logged in, %s\n", name, loginHint)
			return ExitFailure
		}
	}

	err := c.Run(ctx, cfg, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return ExitUsage
	case c.NeedsSession() && errors.Is(err, api.ErrUnauthorized):
		if cerr := authStore(cfg).Clear(); cerr != nil {
			fmt.Fprintf(Out, "%s error: %v (removing stored token: %v)\n", name, err, cerr)
			return ExitFailure
		}
		fmt.Fprintf(Out, "%s: session expired or invalid, stored token removed; %s\n", name, loginHint)
		return ExitFailure
	default:
		fmt.Fprintf(Out, "%s error: %v\n", name, err)
		return ExitFailure
	}
}

func help(cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage(cfg))
		return ExitOK
	}
	if c, ok := Get(strings.ToLower(args[0])); ok {
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return ExitOK
	}
	fmt.Fprintf(Out, "Unknown command: %s\n\n", args[0])
	fmt.Fprint(Out, FormatGlobalUsage(cfg))
	return ExitUsage
}

func wantsHelp(args []string) bool {
	for _, a := range args {
		if a == "-h" || a == "--help" {
			return true
		}
	}
	return false
}
