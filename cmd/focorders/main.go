package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"focorders/internal/app"
)

var application *app.App

var rootCmd = &cobra.Command{
	Use:           "focorders",
	Short:         "Submit free-of-charge sales orders from spreadsheets to the ERP",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.Load()
		if err != nil {
			return err
		}
		application = a
		return nil
	},
}

func main() {
	rootCmd.AddCommand(previewCmd(), submitCmd(), mailFetchCmd(), mailProcessCmd(), mailListenCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if application != nil {
		_ = application.Close()
	}
	must(err)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
