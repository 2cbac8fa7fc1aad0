package app

import (
	"context"
	"errors"

	"docqa/internal/server"
)

var errNotInitialized = errors.New("app is not initialized, call Init first")

// Run serves HTTP on cfg.ListenAddr until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return errNotInitialized
	}

	srv := server.New(a.pipeline, a, a.log)
	a.log.Info("🚀 listening", "addr", "http://"+trimHostPrefix(a.cfg.ListenAddr))

	if err := srv.ListenAndServe(ctx, a.cfg.ListenAddr, a.cfg.ShutdownTimeout); err != nil {
		return err
	}
	a.log.Info("application stopped")
	return nil
}
