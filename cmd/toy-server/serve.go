package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/network"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand() *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the round loop behind the WebSocket and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(seed)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one from the clock)")
	return cmd
}

func runServe(seed int64) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info("Initializing toy workshop server...")

	w, err := wire(cfg, log, seed)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := engine.NewTicker(w.engine, log, cfg.Server.TickRate, cfg.Tuning.CommandBuffer)
	go ticker.Start(ctx)
	defer ticker.Stop()

	log.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(ticker, log, network.HubOptions{
		BroadcastBuffer:   cfg.Tuning.BroadcastBuffer,
		ClientSendBuffer:  cfg.Tuning.ClientSendBuffer,
		MessagesPerSecond: cfg.Tuning.MaxMessagesPerSecond,
		MaxClients:        cfg.Tuning.MaxClients,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Observer:          w.metrics,
	})
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, w.eventLog, cfg.Server.TickRate)

	var history network.History
	if w.store != nil {
		history = w.store
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/metrics", w.metrics.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	network.NewReplayHandler(ticker, w.eventLog, history, log).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP API & WS Server listening on " + cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
