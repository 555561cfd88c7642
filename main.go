package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Farhad7860/TaskFlow/cli"
	"github.com/Farhad7860/TaskFlow/config"
	"github.com/Farhad7860/TaskFlow/logging"
	"github.com/Farhad7860/TaskFlow/services"
	"github.com/Farhad7860/TaskFlow/session"
	"github.com/Farhad7860/TaskFlow/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.InitLogger(logging.Options{SystemName: "taskflow", File: cfg.LogFile, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := session.Open(cfg.SessionPath)
	if err != nil {
		logging.Logger.Errorf("Event ID: SESSION_STORE_OPEN_FAILED, Description: %v", err)
		return err
	}
	defer store.Close()

	sessions := session.NewManager(store)
	if err := sessions.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	api := services.NewAPI(services.NewClient(services.OptionsFromConfig(cfg)))
	st, err := state.NewStore(api, sessions, state.Options{Timeout: cfg.RequestTimeout, Workers: cfg.Workers})
	if err != nil {
		return err
	}
	defer st.Close()

	root := cli.NewRootCmd(&cli.App{Store: st, Out: os.Stdout})
	return root.ExecuteContext(ctx)
}
