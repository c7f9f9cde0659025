package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/httpapi"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/refresh"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("refresh", "", "cron schedule for re-running the last search, e.g. \"@every 1h\"")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("refresh.schedule", serveCmd.Flags().Lookup("refresh"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-recommender server", zap.String("version", version))

	a, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	if config.Refresh.Schedule != "" {
		r, err := refresh.New(config.Refresh.Schedule, a.aggregation, config.Refresh.Timeout, logger)
		if err != nil {
			logger.Fatal("configuring refresh", zap.Error(err))
		}
		r.Start(ctx)
		logger.Info("scheduled refresh enabled",
			zap.String("schedule", config.Refresh.Schedule),
			zap.Time("next_run", r.Next()),
		)
	}

	srv := &http.Server{
		Addr: config.Server.Addr,
		Handler: httpapi.NewHandler(httpapi.Deps{
			Aggregator:  a.aggregation,
			Ingester:    a.ingest,
			Recommender: a.engine,
			Session:     a.state,
			Logger:      logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
