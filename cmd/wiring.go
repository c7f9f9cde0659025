package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/ai/gemini"
	"github.com/spigell/job-recommender/internal/ai/groq"
	"github.com/spigell/job-recommender/internal/filtering"
	"github.com/spigell/job-recommender/internal/jobsource"
	"github.com/spigell/job-recommender/internal/jobsource/headhunter"
	"github.com/spigell/job-recommender/internal/jobsource/jobspy"
	"github.com/spigell/job-recommender/internal/pipeline"
	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/resume"
	"github.com/spigell/job-recommender/internal/secrets"
	"github.com/spigell/job-recommender/internal/session"
)

// application is one session shared by every surface of a process.
type application struct {
	state       *session.State
	aggregation *pipeline.Aggregation
	ingest      *pipeline.ResumeIngest
	engine      *recommend.Engine
	logger      *zap.Logger
}

func newApplication(ctx context.Context, config *Config, logger *zap.Logger) (*application, error) {
	state := session.New()

	searcher, err := newSearcher(config.Sources, logger)
	if err != nil {
		return nil, err
	}

	oracle, err := newOracle(ctx, config.AI, logger)
	if err != nil {
		return nil, err
	}

	filters := newFilters(config.Exclude, logger)

	a := &application{
		state:       state,
		aggregation: pipeline.NewAggregation(searcher, state, logger, filters...),
		ingest:      pipeline.NewResumeIngest(resume.NewAutoExtractor(), state, logger),
		engine: recommend.NewEngine(state, oracle, recommend.Options{
			Target:  config.AI.Target,
			Timeout: config.AI.Timeout,
		}, logger),
		logger: logger,
	}

	if path := strings.TrimSpace(config.Resume.Path); path != "" {
		if err := a.loadResume(ctx, path); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// newFilters builds the exclusion chain. An exclude file that cannot be read at
// startup disables its step instead of failing every aggregation.
func newFilters(cfg *filtering.Config, logger *zap.Logger) []filtering.Filter {
	filters := filtering.FromConfig(cfg)

	if cfg == nil {
		return filters
	}
	if path := strings.TrimSpace(cfg.ExcludeFile); path != "" {
		if _, err := filtering.LoadExcludedPostings(path); err != nil {
			logger.Warn("exclude file is unreadable, disabling the step",
				zap.String("path", path),
				zap.Error(err),
			)
			filtering.DisableByName(filters, "exclude_file", err.Error())
		}
	}

	for _, status := range filtering.Describe(filters) {
		logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}
	return filters
}

func (a *application) loadResume(ctx context.Context, path string) error {
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading resume %q: %w", path, err)
	}
	if _, err := a.ingest.Ingest(ctx, doc); err != nil {
		return fmt.Errorf("loading resume %q: %w", path, err)
	}
	return nil
}

func newSearcher(cfg *SourcesConfig, logger *zap.Logger) (*jobsource.Aggregator, error) {
	limiter := jobsource.NewHostLimiter(cfg.RateLimit, cfg.Burst)

	var sources []jobsource.Source

	if cfg.JobSpy != nil && cfg.JobSpy.Enabled {
		key, err := optionalSecret("jobspy api key", cfg.JobSpy.Key)
		if err != nil {
			return nil, err
		}
		client, err := jobspy.New(jobspy.Config{
			URL:     cfg.JobSpy.URL,
			APIKey:  key,
			Timeout: cfg.JobSpy.Timeout,
			Boards:  cfg.JobSpy.Boards,
		}, limiter, logger.With(zap.String("source", "jobspy")))
		if err != nil {
			return nil, err
		}
		sources = append(sources, client)
	}

	if cfg.HeadHunter != nil && cfg.HeadHunter.Enabled {
		token, err := optionalSecret("headhunter token", cfg.HeadHunter.Token)
		if err != nil {
			return nil, err
		}
		client := headhunter.New(logger.With(zap.String("source", "headhunter")), token, limiter)
		if cfg.HeadHunter.UserAgent != "" {
			client.UserAgent = cfg.HeadHunter.UserAgent
		}
		sources = append(sources, client)
	}

	if len(sources) == 0 {
		return nil, errors.New("no job sources enabled (set sources.jobspy.enabled or sources.headhunter.enabled)")
	}

	return jobsource.NewAggregator(logger, cfg.Timeout, sources...), nil
}

// newOracle returns nil when ai is disabled; the engine then ranks heuristically.
func newOracle(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (recommend.Oracle, error) {
	if !cfg.Enabled {
		logger.Info("ai ranking disabled, recommendations use batch order")
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	var generator ai.Generator
	switch provider {
	case ai.ProviderGemini:
		if cfg.Gemini == nil {
			return nil, errors.New("gemini configuration is required when ai.provider is gemini")
		}
		key, err := loadSecret("gemini api key", cfg.Gemini.Key)
		if err != nil {
			return nil, err
		}
		generator, err = gemini.NewGenerator(ctx, gemini.Config{
			APIKey:      key,
			Model:       cfg.Gemini.Model,
			MaxRetries:  cfg.Gemini.MaxRetries,
			Temperature: cfg.Gemini.Temperature,
		}, logger.With(zap.String("provider", provider)))
		if err != nil {
			return nil, err
		}
	case ai.ProviderGroq:
		if cfg.Groq == nil {
			return nil, errors.New("groq configuration is required when ai.provider is groq")
		}
		key, err := loadSecret("groq api key", cfg.Groq.Key)
		if err != nil {
			return nil, err
		}
		generator, err = groq.NewClient(groq.Config{
			APIKey:      key,
			BaseURL:     cfg.Groq.BaseURL,
			Model:       cfg.Groq.Model,
			Temperature: cfg.Groq.Temperature,
		}, logger.With(zap.String("provider", provider)))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	return recommend.NewLLMOracle(generator, provider, cfg.Instructions, logger, cfg.MaxLogLength), nil
}

func secretSource(name string, cfg SecretConfig) secrets.Source {
	src := secrets.Source{
		Name:  name,
		Value: cfg.Value,
		File:  cfg.File,
		Env:   cfg.Env,
	}
	if cfg.KeyringUser != "" {
		src.KeyringService = app
		src.KeyringUser = cfg.KeyringUser
	}
	return src
}

func loadSecret(name string, cfg SecretConfig) (string, error) {
	return secrets.Load(secretSource(name, cfg))
}

func optionalSecret(name string, cfg SecretConfig) (string, error) {
	secret, err := loadSecret(name, cfg)
	if errors.Is(err, secrets.ErrNotConfigured) {
		return "", nil
	}
	return secret, err
}
