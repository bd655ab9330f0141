package main

import (
	"context"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/pdf-saas/orchestrator/internal/api_server"
	"github.com/pdf-saas/orchestrator/internal/client"
	"github.com/pdf-saas/orchestrator/internal/config"
	"github.com/pdf-saas/orchestrator/internal/service"
	"github.com/pdf-saas/orchestrator/internal/store"
	"github.com/pdf-saas/orchestrator/pkg/log"
	"github.com/pdf-saas/orchestrator/pkg/migrations"
)

var skipMigrations bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pdf-saas api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		undo := log.Setup(cfg.Service.LogLevel)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if !skipMigrations {
			if err := migrations.MigrateStore(db, cfg.Database.Type); err != nil {
				zap.S().Fatalw("running migrations", "error", err)
			}
		}

		documents, err := store.NewDocumentStore(cfg)
		if err != nil {
			zap.S().Fatalw("initializing document store", "error", err)
		}
		if closer, ok := documents.(io.Closer); ok {
			defer closer.Close()
		}
		zap.S().Infow("document store ready", "type", documents.Type())

		pipeline := service.NewPipelineService(
			service.PipelineConfig{
				ExtractTimeout:   cfg.Collaborators.ExtractionTimeout,
				SummarizeTimeout: cfg.Collaborators.SummarizationTimeout,
				PersistTimeout:   cfg.Storage.Timeout,
				RenderTimeout:    cfg.Collaborators.RenderingTimeout,
				StrictDocuments:  cfg.Service.StrictDocuments,
			},
			client.NewExtractionClient(cfg.Collaborators.ExtractionURL, cfg.Collaborators.ExtractionTimeout),
			client.NewSummarizationClient(cfg.Collaborators.SummarizationURL, cfg.Collaborators.SummarizationTimeout),
			client.NewRenderingClient(cfg.Collaborators.RenderingURL, cfg.Collaborators.RenderingTimeout),
			s,
			documents,
		)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, pipeline, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("Error running server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("failed to run metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not migrate the db on startup")
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
