package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/mcptools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the pipeline as MCP tools over stdio",
	Run: func(_ *cobra.Command, _ []string) {
		serveMCP()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func serveMCP() {
	// stdout carries the protocol, so logs always go to stderr as json.
	logger, err := logger.New(true, viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	a, err := newApplication(context.Background(), config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	s := mcptools.NewServer(mcptools.Deps{
		Aggregator:  a.aggregation,
		Ingester:    a.ingest,
		Recommender: a.engine,
		Session:     a.state,
		Version:     version,
	})

	if err := mcptools.Serve(s); err != nil {
		logger.Fatal("mcp server failed", zap.Error(err))
	}
}
