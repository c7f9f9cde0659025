package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/resume"
	"github.com/spigell/job-recommender/internal/session"
)

// ResumeIngest extracts a resume and commits it as the session's profile.
type ResumeIngest struct {
	extractor resume.Extractor
	state     *session.State
	logger    *zap.Logger
	now       func() time.Time
}

func NewResumeIngest(extractor resume.Extractor, state *session.State, log *zap.Logger) *ResumeIngest {
	return &ResumeIngest{
		extractor: extractor,
		state:     state,
		logger:    logger.ForStage(log, "resume_ingest"),
		now:       time.Now,
	}
}

// Ingest replaces the session resume with the text of doc.
// The session is left untouched on any error.
func (r *ResumeIngest) Ingest(ctx context.Context, doc []byte) (*resume.Profile, error) {
	if len(doc) == 0 {
		return nil, &UnreadableDocumentError{Reason: "document is empty"}
	}

	pages, err := r.extractor.Extract(ctx, doc)
	if errors.Is(err, resume.ErrUnsupportedDocument) {
		return nil, &UnreadableDocumentError{Reason: err.Error()}
	}
	if err != nil {
		r.logger.Warn("resume extraction failed", zap.Int("bytes", len(doc)), zap.Error(err))
		return nil, &ExtractionError{Err: err}
	}

	text := resume.JoinPages(pages)
	if text == "" {
		return nil, &UnreadableDocumentError{Reason: "no text could be extracted"}
	}

	profile := &resume.Profile{
		RawText:    text,
		Language:   resume.DetectLanguage(text),
		Pages:      len(pages),
		IngestedAt: r.now().UTC(),
	}

	r.state.SetResume(profile)

	r.logger.Info("resume committed",
		zap.Int("pages", profile.Pages),
		zap.Int("characters", len([]rune(text))),
		zap.String("language", profile.Language),
	)

	return profile, nil
}
