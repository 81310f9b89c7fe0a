package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"focorders/internal/app"
	"focorders/internal/listener"
)

func main() {
	a, err := app.Load()
	must(err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, a)
	cancel()
	if cerr := a.Close(); cerr != nil && err == nil {
		err = cerr
	}
	must(err)
}

func run(ctx context.Context, a *app.App) error {
	svc, err := a.Listener(ctx, listener.OptionsFromConfig(a.Cfg))
	if err != nil {
		return err
	}
	a.Log.Info().Str("provider", a.Cfg.MailListenerProvider).Int("intervalSec", a.Cfg.MailListenerIntervalSec).Msg("order listener started")
	return svc.Run(ctx)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
