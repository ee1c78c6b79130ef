package commands

import (
	"KeyVault/internal/config"
	"context"
	"fmt"
)

type getCmd struct{}

func (getCmd) Name() string        { return "get" }
func (getCmd) Description() string { return "Print decrypted API key values" }
func (getCmd) Usage() string       { return "get <name> [name...]" }
func (getCmd) NeedsSession() bool  { return true }

// Run печатает одно значение как есть (удобно для подстановки в shell),
// несколько — в виде name=value.
func (getCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	svc, err := newKeyService(cfg)
	if err != nil {
		return err
	}
	for _, name := range args {
		v, err := svc.Get(ctx, name)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			fmt.Fprintln(Out, v.APIKey)
			continue
		}
		fmt.Fprintf(Out, "%s=%s\n", v.KeyName, v.APIKey)
	}
	return nil
}

func init() { RegisterCmd(getCmd{}) }
