package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"zkmsg/internal/service/app"
	"zkmsg/internal/utils/log"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		server   string
		keysFile string
		peer     string
		orderID  string
	)

	cmd := &cobra.Command{
		Use:   "zkmsg-client <name>",
		Short: "Terminal chat client for a zkmsg server",
		Example: `
  # Chat with bob about order-42
  zkmsg-client alice --to bob --order order-42`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if keysFile == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				keysFile = filepath.Join(home, ".zkmsg", name+".json")
			}

			id, err := app.LoadOrCreateIdentity(keysFile, name)
			if err != nil {
				return err
			}
			client, err := app.NewClient(server)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a := app.NewApp(client, id)
			go func() {
				<-ctx.Done()
				a.Stop()
			}()
			return a.Run(ctx, peer, orderID)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:9090", "server base url")
	cmd.Flags().StringVarP(&keysFile, "keys", "k", "", "identity file (default ~/.zkmsg/<name>.json)")
	cmd.Flags().StringVarP(&peer, "to", "t", "", "recipient name")
	cmd.Flags().StringVarP(&orderID, "order", "o", "chat", "order id the conversation belongs to")
	cmd.MarkFlagRequired("to")
	return cmd
}

func main() {
	// the TUI owns the terminal, keep logs quiet
	if err := log.Init("error", false); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	defer log.Sync()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
