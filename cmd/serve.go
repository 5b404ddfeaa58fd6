package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbansight/geocore/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		api := server.New(server.Config{
			Index:               eng.index,
			Isochrones:          eng.isochrones,
			Access:              eng.access,
			Suitability:         eng.suitability,
			Optimizer:           eng.optimizer,
			Meetings:            eng.meetings,
			Ranker:              eng.ranker,
			SuitabilityDefaults: eng.suitabilityConfig(),

			AccessCeilingMinutes: cfg.Access.CeilingMinutes,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Int("pois", eng.index.POICount()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	registerDataFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}
