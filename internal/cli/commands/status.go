package commands

import (
	"KeyVault/internal/cli/api"
	"KeyVault/internal/config"
	"context"
	"fmt"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show server health and current user" }
func (statusCmd) Usage() string       { return "status" }
func (statusCmd) NeedsSession() bool  { return false }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	status, err := api.NewClient(cfg.ServerURL, "").Health(ctx)
	if err != nil {
		return fmt.Errorf("server %s unreachable: %w", cfg.ServerURL, err)
	}
	fmt.Fprintf(Out, "Server: %s (%s)\n", status, cfg.ServerURL)

	login, role, err := newAuthService(cfg).CurrentUser()
	if err != nil || login == "" {
		fmt.Fprintln(Out, "User: not logged in")
		return nil
	}
	fmt.Fprintf(Out, "User: %s (%s)\n", login, role)
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
