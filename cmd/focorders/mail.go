package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focorders/internal/connectors"
	"focorders/internal/listener"
)

func mailFetchCmd() *cobra.Command {
	var (
		provider string
		label    string
		max      int
	)
	cmd := &cobra.Command{
		Use:   "mail:fetch",
		Short: "Download order mails into the local ledger without submitting them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider = strings.ToLower(strings.TrimSpace(provider))
			conn, err := listener.MakeConnector(cmd.Context(), application.Cfg, provider)
			if err != nil {
				return err
			}
			db, err := application.DB()
			if err != nil {
				return err
			}
			result, err := connectors.NewFetchService(db, application.Cfg.RawMailDir, conn).FetchAndStore(cmd.Context(), label, max)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mail fetch done provider=%s fetched=%d stored=%d\n", provider, result.Fetched, result.Stored)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "gmail", "gmail|imap")
	cmd.Flags().StringVar(&label, "label", "INBOX", "mailbox/label")
	cmd.Flags().IntVar(&max, "max", 50, "max messages")
	return cmd
}

func mailProcessCmd() *cobra.Command {
	var (
		provider string
		batch    int
	)
	cmd := &cobra.Command{
		Use:   "mail:process",
		Short: "Submit the spreadsheet attachments of already fetched mails",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := listener.OptionsFromConfig(application.Cfg)
			opts.Provider = strings.ToLower(strings.TrimSpace(provider))
			opts.Batch = batch

			svc, err := application.Listener(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var res listener.CycleResult
			if err := svc.ProcessPending(cmd.Context(), &res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed submitted=%d failed=%d skipped=%d\n", res.Submitted, res.Failed, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "gmail", "gmail|imap")
	cmd.Flags().IntVar(&batch, "batch", 20, "max mails per run")
	return cmd
}

func mailListenCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "mail:listen",
		Short: "Poll the mailbox and submit every new order sheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := application.Listener(cmd.Context(), listener.OptionsFromConfig(application.Cfg))
			if err != nil {
				return err
			}
			if once {
				_, err := svc.RunOnce(cmd.Context())
				return err
			}
			return svc.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single fetch and submit cycle")
	return cmd
}
