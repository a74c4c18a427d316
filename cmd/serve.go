package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kevinaaaquil/bookstore/backend/config"
	"github.com/kevinaaaquil/bookstore/backend/handlers"
	"github.com/kevinaaaquil/bookstore/backend/middleware"
	"github.com/kevinaaaquil/bookstore/backend/service"
	"github.com/kevinaaaquil/bookstore/backend/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()

	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	uploader, err := newUploader(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	metrics := middleware.NewMetrics()
	importer := newImporter(ctx, cfg, db)
	importer.Observer = metrics

	srv := &handlers.Server{
		Books:  &handlers.BooksHandler{Store: db},
		Import: &handlers.ImportHandler{Importer: importer, MaxBytes: cfg.MaxUploadBytes()},
		Auth: &handlers.AuthHandler{
			Users:           db,
			JWTSecret:       cfg.JWTSecret,
			DefaultUsername: cfg.AdminUsername,
			DefaultPassword: cfg.AdminPassword,
		},
		Admin:       &handlers.AdminHandler{Source: db},
		Banners:     &handlers.BannersHandler{Store: db, Files: uploader, MaxBytes: cfg.MaxUploadBytes()},
		Upload:      &handlers.UploadHandler{Files: uploader, MaxBytes: cfg.MaxUploadBytes()},
		Metrics:     metrics,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newUploader returns nil when no bucket is configured; upload endpoints then answer 503.
func newUploader(ctx context.Context, cfg config.StorageConfig) (handlers.FileStore, error) {
	storage, err := service.NewStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up object storage: %w", err)
	}
	if storage == nil {
		log.Warn().Msg("S3_BUCKET not set; uploads are disabled")
		return nil, nil
	}
	log.Info().Str("driver", cfg.Driver).Str("bucket", cfg.Bucket).Msg("object storage ready")
	return service.NewUploader(storage, service.PublicBaseURL(cfg)), nil
}

// newImporter falls back to report mode when the deployment cannot run transactions.
func newImporter(ctx context.Context, cfg *config.Config, db *store.DB) *service.Importer {
	mode := cfg.BulkImportMode
	if mode == config.ImportTransaction && !db.SupportsTransactions(ctx) {
		log.Warn().Msg("BULK_IMPORT_MODE=transaction needs a replica set; using report mode")
		mode = config.ImportReport
	}
	return service.NewImporter(db, mode, cfg.BulkChunkSize)
}
