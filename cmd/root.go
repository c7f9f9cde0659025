package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-recommender/internal/filtering"
	"github.com/spigell/job-recommender/internal/jobs"
)

const (
	app       = "job-recommender"
	envPrefix = "JOB_RECOMMENDER"
)

type Config struct {
	Server  *ServerConfig     `mapstructure:"server"`
	Search  *jobs.Criteria    `mapstructure:"search"`
	Exclude *filtering.Config `mapstructure:"exclude"`
	Sources *SourcesConfig    `mapstructure:"sources"`
	Resume  *ResumeConfig     `mapstructure:"resume"`
	AI      *AIConfig         `mapstructure:"ai"`
	Refresh *RefreshConfig    `mapstructure:"refresh"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type SourcesConfig struct {
	Timeout    time.Duration     `mapstructure:"timeout"`
	RateLimit  float64           `mapstructure:"rate-limit"`
	Burst      int               `mapstructure:"burst"`
	JobSpy     *JobSpyConfig     `mapstructure:"jobspy"`
	HeadHunter *HeadHunterConfig `mapstructure:"headhunter"`
}

type JobSpyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Boards  []string      `mapstructure:"boards"`
	Key     SecretConfig  `mapstructure:"api-key"`
}

type HeadHunterConfig struct {
	Enabled   bool         `mapstructure:"enabled"`
	UserAgent string       `mapstructure:"user-agent"`
	Token     SecretConfig `mapstructure:"token"`
}

type ResumeConfig struct {
	// Path is loaded on startup when set.
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Target       int           `mapstructure:"target"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Instructions string        `mapstructure:"instructions"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	Groq         *GroqConfig   `mapstructure:"groq"`
}

type GeminiConfig struct {
	Model       string       `mapstructure:"model"`
	MaxRetries  int          `mapstructure:"max-retries"`
	Temperature *float32     `mapstructure:"temperature"`
	Key         SecretConfig `mapstructure:"api-key"`
}

type GroqConfig struct {
	Model       string       `mapstructure:"model"`
	BaseURL     string       `mapstructure:"base-url"`
	Temperature *float32     `mapstructure:"temperature"`
	Key         SecretConfig `mapstructure:"api-key"`
}

// SecretConfig points at a secret. File wins over Env, then the OS keychain
// entry (service job-recommender, user KeyringUser), then the inline Value.
type SecretConfig struct {
	Value       string `mapstructure:"value" json:"-"`
	File        string `mapstructure:"file"`
	Env         string `mapstructure:"env"`
	KeyringUser string `mapstructure:"keyring-user"`
}

type RefreshConfig struct {
	Schedule string        `mapstructure:"schedule"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-recommender searches job boards and ranks the postings against your resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown-timeout", 10*time.Second)

	v.SetDefault("search.sources", jobs.DefaultSources)
	v.SetDefault("search.results-wanted", jobs.DefaultResultsWanted)
	v.SetDefault("search.country", jobs.DefaultCountryCode)
	v.SetDefault("search.max-age-hours", jobs.DefaultMaxAgeHours)

	v.SetDefault("sources.timeout", 2*time.Minute)
	v.SetDefault("sources.rate-limit", 1.0)
	v.SetDefault("sources.burst", 2)
	v.SetDefault("sources.jobspy.enabled", true)
	v.SetDefault("sources.jobspy.url", "http://localhost:8000")
	v.SetDefault("sources.jobspy.timeout", 90*time.Second)
	v.SetDefault("sources.jobspy.api-key.env", "JOBSPY_API_KEY")
	v.SetDefault("sources.headhunter.enabled", false)
	v.SetDefault("sources.headhunter.token.env", "HH_TOKEN")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "groq")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.target", 5)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.gemini.max-retries", 1)
	v.SetDefault("ai.gemini.api-key.env", "GEMINI_API_KEY")
	v.SetDefault("ai.groq.api-key.env", "GROQ_API_KEY")

	v.SetDefault("refresh.timeout", 5*time.Minute)
}

func initConfig() {
	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without a config file the defaults and environment are enough.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		os.Exit(1)
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Search == nil {
		config.Search = &jobs.Criteria{}
	}
	if config.Exclude == nil {
		config.Exclude = &filtering.Config{}
	}
	if config.Sources == nil {
		config.Sources = &SourcesConfig{}
	}
	if config.Resume == nil {
		config.Resume = &ResumeConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Refresh == nil {
		config.Refresh = &RefreshConfig{}
	}
	return config, nil
}
