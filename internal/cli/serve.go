package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/pdfword/internal/metrics"
	"github.com/local/pdfword/internal/orchestrator"
	"github.com/local/pdfword/internal/pdfword"
	"github.com/local/pdfword/internal/statuscheck"
	"github.com/local/pdfword/internal/storage"
	"github.com/local/pdfword/internal/store"
)

func (a *App) newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Server.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (default $PORT or 8080)")
	return cmd
}

// dependencies builds the status store, object storage and checker shared
// by serve and status.
func (a *App) dependencies(ctx context.Context) (store.StatusStore, *storage.Client, *statuscheck.Checker, error) {
	var (
		status store.StatusStore
		pinger statuscheck.RedisPinger
	)
	if a.cfg.Redis.URL != "" {
		rs, err := store.NewRedisStatus(ctx, a.cfg.Redis.URL, a.cfg.Redis.KeyPrefix, a.cfg.Redis.TTL)
		if err != nil {
			return nil, nil, nil, err
		}
		status, pinger = rs, rs
	} else {
		status = store.NewMemoryStatus(a.cfg.Redis.TTL)
	}

	objects := storage.New(a.cfg.S3, a.cfg.Convert.TempDir)
	opts := statuscheck.Options{
		Redis:          pinger,
		LibreOfficeBin: a.cfg.Convert.LibreOfficeBin,
		LayoutEngine:   a.cfg.Convert.LayoutEngine,
	}
	if a.cfg.S3.Bucket != "" {
		opts.Bucket = objects
	}
	return status, objects, statuscheck.New(opts), nil
}

func (a *App) serve(ctx context.Context) error {
	metrics.Init()

	conv, err := pdfword.New(a.cfg.Convert)
	if err != nil {
		return err
	}
	status, objects, checker, err := a.dependencies(ctx)
	if err != nil {
		return err
	}
	defer status.Close()

	if err := conv.Engine.Available(); err != nil {
		log.Warn().Err(err).Str("engine", conv.Engine.Name()).Msg("layout engine unavailable; conversions will fail until it is installed")
	}
	orchestrator.CleanupTemps(a.cfg.Convert.TempDir, a.cfg.Server.TempMaxAge)

	orch := orchestrator.New(orchestrator.Dependencies{
		Converter: conv,
		Storage:   objects,
		Status:    status,
		Checker:   checker,
		Server:    a.cfg.Server,
		TempDir:   a.cfg.Convert.TempDir,
	})
	mux := http.NewServeMux()
	orch.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("HTTP server listening on :%s", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if err := orch.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("jobs still running at shutdown")
	}
	log.Info().Msg("shutdown complete")
	return nil
}
