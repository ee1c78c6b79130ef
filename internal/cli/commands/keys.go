package commands

import (
	"KeyVault/internal/config"
	"context"
	"fmt"
	"text/tabwriter"
)

type keysCmd struct{}

func (keysCmd) Name() string        { return "keys" }
func (keysCmd) Description() string { return "List visible API keys (names only)" }
func (keysCmd) Usage() string       { return "keys" }
func (keysCmd) NeedsSession() bool  { return true }

func (keysCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	svc, err := newKeyService(cfg)
	if err != nil {
		return err
	}
	keys, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(Out, "No keys")
		return nil
	}
	tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOWNER\tCREATED\tDESCRIPTION")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.KeyName, k.CreatedBy, k.CreatedAt.Format("2006-01-02 15:04"), k.Description)
	}
	return tw.Flush()
}

func init() { RegisterCmd(keysCmd{}) }
