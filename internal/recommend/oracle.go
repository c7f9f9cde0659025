package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	systemPrompt = "You rank job postings for a candidate and answer with strict JSON."

	defaultMaxLogLength     = 200
	maxDescriptionRunes     = 1500
	maxUserInstructionRunes = 500
)

// JobBlock is the part of a job record shown to the oracle.
type JobBlock struct {
	ID          int
	Title       string
	Company     string
	Location    string
	Description string
}

// OracleRequest is everything the oracle sees for one ranking.
type OracleRequest struct {
	ResumeText     string
	ResumeLanguage string
	Jobs           []JobBlock
	Target         int
}

// Oracle ranks jobs for a resume and returns its unvalidated answer.
type Oracle interface {
	Rank(ctx context.Context, req OracleRequest) (string, error)
}

// LLMOracle renders the ranking prompt and sends it to a text generator.
type LLMOracle struct {
	generator    ai.Generator
	instructions string
	logger       *zap.Logger
	maxLogLen    int
}

// NewLLMOracle creates an oracle. instructions are optional free-form user
// preferences passed to the model as advisory text.
func NewLLMOracle(generator ai.Generator, provider, instructions string, log *zap.Logger, maxLogLength int) *LLMOracle {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &LLMOracle{
		generator:    generator,
		instructions: instructions,
		logger:       logger.WithCommonFields(log, provider, generator.Model()),
		maxLogLen:    maxLogLength,
	}
}

func (o *LLMOracle) Rank(ctx context.Context, req OracleRequest) (string, error) {
	if o == nil || o.generator == nil {
		return "", errors.New("oracle is not configured")
	}

	prompt := buildPrompt(req, o.instructions)

	o.logger.Debug("oracle request",
		zap.Int("jobs", len(req.Jobs)),
		zap.Int("target", req.Target),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, o.maxLogLen)),
	)

	raw, err := o.generator.GenerateContent(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}

	o.logger.Debug("oracle response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, o.maxLogLen)),
	)

	return raw, nil
}

func buildPrompt(req OracleRequest, instructions string) string {
	var jobsText strings.Builder
	for i, job := range req.Jobs {
		if i > 0 {
			jobsText.WriteString("\n\n")
		}
		fmt.Fprintf(&jobsText, "Job %d:\nTitle: %s\nCompany: %s\nLocation: %s\nDescription: %s",
			job.ID, job.Title, job.Company, job.Location, clip(job.Description, maxDescriptionRunes))
	}

	language := req.ResumeLanguage
	if language == "" {
		language = "unknown"
	}

	prompt := strings.NewReplacer(
		"{{JOB_COUNT}}", strconv.Itoa(len(req.Jobs)),
		"{{TARGET}}", strconv.Itoa(req.Target),
		"{{RESUME_LANGUAGE}}", language,
		"{{USER_INSTRUCTIONS}}", userInstructionsBlock(instructions),
		"{{RESUME}}", req.ResumeText,
		"{{JOBS}}", jobsText.String(),
	).Replace(promptTemplate)

	return strings.TrimSpace(prompt)
}

// userInstructionsBlock renders free-form instructions as an indented list.
// Square brackets are replaced so the text cannot open a new prompt section.
func userInstructionsBlock(raw string) string {
	text := clip(strings.TrimSpace(raw), maxUserInstructionRunes)
	if text == "" {
		return "  - none"
	}

	text = strings.NewReplacer("[", "(", "]", ")").Replace(text)

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, "  - "+line)
		}
	}
	return strings.Join(lines, "\n")
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
