package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/statutefinder/internal/api"
	"github.com/dgallion1/statutefinder/internal/pipeline"
	"github.com/dgallion1/statutefinder/internal/stats"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newAppFromConfig(cfg, os.Stdout, false)
		if err != nil {
			return err
		}
		defer a.Close()
		a.log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
		return a.serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (default 8090)")
	serveCmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive to record analyses in")
}

func (a *app) serve() error {
	log := a.log
	cfg := a.cfg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := stats.New(time.Hour)

	// A nil *archive.Store must not become a non-nil interface.
	var arch pipeline.Archiver
	var history api.History
	if a.archive != nil {
		arch = a.archive
		history = a.archive
	}

	worker := pipeline.NewWorker(a.loader, a.analyzer, arch, st, log)
	orch := pipeline.NewOrchestrator(pipeline.Options{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobStore:     pipeline.NewJobStore(cfg.JobTTL),
	}, worker, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, history, st, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting statutefinder", "port", cfg.Port, "archive", cfg.ArchivePath != "", "auth", cfg.APIKey != "")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return err
	}
	<-done
	return nil
}
