package commands

import (
	"KeyVault/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown.
var ErrUsage = errors.New("usage")

// Command is a keyvault-cli subcommand.
type Command interface {
	Name() string
	Description() string
	// Usage is the exact synopsis, e.g. "get <name> [name...]".
	Usage() string
	// NeedsSession reports whether the command calls the API with the stored token.
	// The dispatcher refuses such commands before Run when no token is stored.
	NeedsSession() bool
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

var registry = map[string]Command{}

// Out is where commands print. Tests replace it.
var Out io.Writer = os.Stdout

// RegisterCmd adds a command to the registry. Called from init() of each command.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

func Get(name string) (Command, bool) {
	c, ok := registry[name]
	return c, ok
}

// List returns all registered commands sorted by name.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// FormatGlobalUsage lists commands split into session and key commands,
// followed by the server address and the stored session state.
func FormatGlobalUsage(cfg *config.Config) string {
	var session, keys []string
	for _, c := range List() {
		line := fmt.Sprintf("  %-28s %s", c.Usage(), c.Description())
		if c.NeedsSession() {
			keys = append(keys, line)
		} else {
			session = append(session, line)
		}
	}

	lines := []string{
		"KeyVault CLI",
		"",
		"Usage:",
		"  keyvault-cli [--base-url <host:port>] [--token-file <path>] <command> [args]",
		"",
		"Session:",
	}
	lines = append(lines, session...)
	lines = append(lines, "", "Keys (require login):")
	lines = append(lines, keys...)
	lines = append(lines, "", "Server:  "+cfg.ServerURL, "Session: "+sessionState(cfg))
	return strings.Join(lines, "\n") + "\n"
}

// sessionState describes the stored token without contacting the server.
func sessionState(cfg *config.Config) string {
	st := authStore(cfg)
	if _, err := st.Load(); err != nil {
		return "not logged in"
	}
	login, role, err := st.LoadLogin()
	if err != nil {
		return "token stored (user unknown)"
	}
	return fmt.Sprintf("logged in as %s (%s)", login, role)
}
