// Package pipeline is the single entry point that turns a raw request into
// an audit result: detect, extract, analyze, persist.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clobrano/contentaudit/internal/analyzer"
	"github.com/clobrano/contentaudit/internal/detect"
	"github.com/clobrano/contentaudit/internal/extract"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/logger"
	"github.com/clobrano/contentaudit/internal/models"
	"github.com/clobrano/contentaudit/internal/store"
)

const (
	DefaultCategory     = "General"
	DefaultAnalysisMode = "Standard"
)

// Options carries the caller identity and audit parameters.
type Options struct {
	UserID       string
	Category     string
	AnalysisMode string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Category) == "" {
		o.Category = DefaultCategory
	}
	if strings.TrimSpace(o.AnalysisMode) == "" {
		o.AnalysisMode = DefaultAnalysisMode
	}
	return o
}

type TextExtractor interface {
	Extract(ctx context.Context, text string) (extract.Outcome, error)
}

type URLExtractor interface {
	Extract(ctx context.Context, url string) (extract.Outcome, error)
}

type VideoExtractor interface {
	Extract(ctx context.Context, url string) (extract.Outcome, error)
	ExtractPlatform(ctx context.Context, url string) (extract.Outcome, error)
}

type FileExtractor interface {
	Extract(ctx context.Context, f *models.UploadedFile) (extract.Outcome, error)
}

type Invoker interface {
	Invoke(ctx context.Context, text string, meta analyzer.Meta) (models.AuditResult, error)
}

// Recorder receives per-audit metrics. *metrics.Metrics implements it.
type Recorder interface {
	ObserveAudit(contentType, outcome string, d time.Duration)
	Failure(kind string)
	Saved(err error)
}

// Deps are the collaborators a Pipeline is built from. All are required
// except Recorder and Logger.
type Deps struct {
	Guard       extract.Guard
	Text        TextExtractor
	Webpage     URLExtractor
	Video       VideoExtractor
	RemoteMedia URLExtractor
	Media       FileExtractor
	Image       FileExtractor
	Document    FileExtractor
	Invoker     Invoker
	Store       store.Store
	Recorder    Recorder
	Logger      *zap.Logger
	Now         func() time.Time
	NewID       func() string
}

type Pipeline struct {
	deps Deps
	log  *zap.Logger
}

func New(deps Deps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = newRecordID
	}
	return &Pipeline{deps: deps, log: logger.OrNop(deps.Logger)}
}

// ProcessContent audits one input. The only error it returns is
// Unauthenticated for a missing user; every other failure comes back as a
// "Needs Review" placeholder result, and only validated audits are
// persisted.
func (p *Pipeline) ProcessContent(ctx context.Context, in models.RawInput, opts Options) (models.AuditResult, error) {
	if strings.TrimSpace(opts.UserID) == "" {
		return models.AuditResult{}, failure.New(failure.Unauthenticated, "Authentication required")
	}
	opts = opts.withDefaults()
	start := p.deps.Now()

	contentType := ResolveContentType(in)
	log := p.log.With(
		zap.String("user_id", opts.UserID),
		zap.String("content_type", string(contentType)),
	)

	result, record, err := p.run(ctx, in, contentType, opts)
	if err != nil {
		kind := failure.KindOf(err)
		log.Info("Content could not be audited",
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		p.observe(contentType, "needs_review", start, kind)
		return placeholder(err), nil
	}

	p.persist(ctx, log, record)
	p.observe(contentType, "audited", start, failure.Unknown)
	log.Info("Content audited",
		zap.String("record_id", record.ID),
		zap.String("status", result.Status),
		zap.Float64("score", result.Score),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, in models.RawInput, contentType models.ContentType, opts Options) (models.AuditResult, models.AuditRecord, error) {
	outcome, err := p.extract(ctx, in, contentType)
	if err != nil {
		return models.AuditResult{}, models.AuditRecord{}, err
	}
	if err := p.deps.Guard.Text(outcome.ExtractedText); err != nil {
		return models.AuditResult{}, models.AuditRecord{}, err
	}

	result, err := p.deps.Invoker.Invoke(ctx, outcome.ExtractedText, analyzer.Meta{
		InputType:    contentType,
		Category:     opts.Category,
		AnalysisMode: opts.AnalysisMode,
	})
	if err != nil {
		return models.AuditResult{}, models.AuditRecord{}, err
	}
	if result.Transcription == "" {
		result.Transcription = outcome.Transcript
	}

	record := p.newRecord(opts.UserID, contentType, in, outcome, result)
	if err := validateRecord(record); err != nil {
		return models.AuditResult{}, models.AuditRecord{}, err
	}
	return result, record, nil
}

// extract picks the strategy for contentType. URL inputs are validated
// before any network call.
func (p *Pipeline) extract(ctx context.Context, in models.RawInput, contentType models.ContentType) (extract.Outcome, error) {
	switch contentType {
	case models.ContentTypeText:
		return p.deps.Text.Extract(ctx, in.Text)
	case models.ContentTypeImage:
		return p.deps.Image.Extract(ctx, in.File)
	case models.ContentTypeDocument:
		return p.deps.Document.Extract(ctx, in.File)
	case models.ContentTypeUnknown:
		return extract.Outcome{}, failure.New(failure.UnknownContent,
			"Unable to detect content type. Please upload a supported file.")
	}

	if in.URL == "" {
		return p.deps.Media.Extract(ctx, in.File)
	}

	if err := detect.ValidateURL(in.URL); err != nil {
		return extract.Outcome{}, err
	}
	switch detect.ClassifyURL(in.URL) {
	case detect.URLYouTube:
		return p.deps.Video.Extract(ctx, in.URL)
	case detect.URLVideoPlatform:
		return p.deps.Video.ExtractPlatform(ctx, in.URL)
	case detect.URLVideoFile, detect.URLAudioFile:
		return p.deps.RemoteMedia.Extract(ctx, in.URL)
	default:
		return p.deps.Webpage.Extract(ctx, in.URL)
	}
}

// ResolveContentType is the content type an input is audited and recorded
// as. It refines the detector's "url" into the leaf type the
// URL classifier picks.
func ResolveContentType(in models.RawInput) models.ContentType {
	ct := detect.ContentType(in)
	if ct != models.ContentTypeURL {
		return ct
	}
	if detect.ValidateURL(in.URL) != nil {
		return models.ContentTypeWebpage
	}
	switch detect.ClassifyURL(in.URL) {
	case detect.URLYouTube, detect.URLVideoPlatform, detect.URLVideoFile:
		return models.ContentTypeVideo
	case detect.URLAudioFile:
		return models.ContentTypeAudio
	}
	return models.ContentTypeWebpage
}

func placeholder(err error) models.AuditResult {
	summary := failure.MessageOf(err)
	if summary == "" {
		summary = "Audit failed."
	}
	return models.PlaceholderResult(summary)
}

func (p *Pipeline) observe(contentType models.ContentType, outcome string, start time.Time, kind failure.Kind) {
	if p.deps.Recorder == nil {
		return
	}
	p.deps.Recorder.ObserveAudit(string(contentType), outcome, p.deps.Now().Sub(start))
	if outcome != "audited" {
		p.deps.Recorder.Failure(kind.String())
	}
}
