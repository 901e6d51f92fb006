package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local JSON API for the web front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		app, err := startContainer(ctx, true)
		if err != nil {
			return err
		}
		defer app.Close()

		server := app.HTTPServer()
		logger.Info("Expense auditor ready",
			zap.String("address", server.Address()),
			zap.Int("entries", len(app.Services().Expenses.List())))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Start(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down")
			return nil
		})

		if err := g.Wait(); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override server.port")
	rootCmd.AddCommand(serveCmd)
}
