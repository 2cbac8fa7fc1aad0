package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"docqa/internal/app"

	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the index and serve the HTTP API",
	Long: `Builds the vector index from the data directory, then serves
POST /ask, GET /healthcheck and GET /documents until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Контекст с сигналами завершения
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(&cfg, prompts, app.WithLogger(log))
	if err := a.Init(ctx); err != nil {
		return err
	}

	return a.Run(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
