package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/pipeline"
	"github.com/spigell/job-recommender/internal/recommend"
)

const (
	PromptSearch    = "Search jobs"
	PromptResume    = "Load resume"
	PromptRecommend = "Recommend"
	PromptSession   = "Show session"
	PromptExit      = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptSearch, PromptResume, PromptRecommend, PromptSession, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive job-recommender session",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "resume file (pdf or text) to load on start")
	runCmd.Flags().StringP("search-term", "s", "", "default search term")
	runCmd.Flags().StringP("location", "l", "", "default location")

	viper.BindPFlag("resume.path", runCmd.Flags().Lookup("resume"))
	viper.BindPFlag("search.search-term", runCmd.Flags().Lookup("search-term"))
	viper.BindPFlag("search.location", runCmd.Flags().Lookup("location"))
}

// run is the interactive loop of the cli.
func run() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-recommender", zap.String("version", version))

	a, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Info("exiting", zap.Error(err))
			return
		}

		if err := handleAction(ctx, action, a, config); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error(action+" failed", zap.String("kind", pipeline.Kind(err)), zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, a *application, config *Config) error {
	switch action {
	case PromptSearch:
		criteria, err := askCriteria(*config.Search)
		if err != nil {
			return err
		}
		batch, err := a.aggregation.Aggregate(ctx, criteria)
		if err != nil {
			return err
		}
		*config.Search = criteria
		printBatch(batch)
		return nil
	case PromptResume:
		path, err := ask("Resume path", config.Resume.Path, fileExists)
		if err != nil {
			return err
		}
		if err := a.loadResume(ctx, path); err != nil {
			return err
		}
		config.Resume.Path = path
		fmt.Println("Resume uploaded and extracted successfully.")
		return nil
	case PromptRecommend:
		result, err := a.engine.Recommend(ctx)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	case PromptSession:
		pretty, _ := json.MarshalIndent(a.state.Status(), "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func askCriteria(defaults jobs.Criteria) (jobs.Criteria, error) {
	c := defaults

	var err error
	if c.SearchTerm, err = ask("Search term", defaults.SearchTerm, required); err != nil {
		return c, err
	}
	if c.Location, err = ask("Location", defaults.Location, required); err != nil {
		return c, err
	}

	boards, err := ask("Job boards (comma separated)", strings.Join(defaults.Sources, ","), nil)
	if err != nil {
		return c, err
	}
	c.Sources = strings.Split(boards, ",")

	wanted, err := ask("Results per board", strconv.Itoa(defaults.ResultsWanted), positiveInt)
	if err != nil {
		return c, err
	}
	c.ResultsWanted, _ = strconv.Atoi(strings.TrimSpace(wanted))

	return c, nil
}

func ask(label, def string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
		Validate:  validate,
	}
	value, err := p.Run()
	return strings.TrimSpace(value), err
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

func fileExists(s string) error {
	info, err := os.Stat(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.New("is a directory")
	}
	return nil
}

func printBatch(batch *jobs.Batch) {
	fmt.Printf("Saved %d jobs (batch %s)\n", batch.Len(), batch.ID)
	for _, r := range batch.Records {
		fmt.Printf("%3d. %s | %s | %s | %s\n", r.ID, r.Title, r.Company, r.Location, r.URL)
	}
}

func printResult(result *recommend.Result) {
	fmt.Println(result.Message)
	if result.Heuristic {
		fmt.Printf("(heuristic ranking: %s)\n", result.FallbackReason)
	}
	for _, r := range result.Recommendations {
		fmt.Printf("%d. [job %d] %s at %s\n   %s\n   %s\n", r.Rank, r.JobID, r.Title, r.CompanyName, r.JobURL, r.Reason)
	}
}
