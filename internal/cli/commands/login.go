package commands

import (
	"KeyVault/internal/config"
	"context"
	"fmt"
)

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store session token" }
func (loginCmd) Usage() string       { return "login <username> <password>" }
func (loginCmd) NeedsSession() bool  { return false }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	res, err := newAuthService(cfg).Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Logged in successfully as %s (%s)\n", res.User, res.Role)
	return nil
}

func init() { RegisterCmd(loginCmd{}) }
