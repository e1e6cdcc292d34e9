// Package processor drains the job queue: each job becomes one
// ProcessContent call whose outcome is pushed to the notifier.
package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/clobrano/contentaudit/internal/logger"
	"github.com/clobrano/contentaudit/internal/models"
	"github.com/clobrano/contentaudit/internal/notifier"
	"github.com/clobrano/contentaudit/internal/pipeline"
	"github.com/clobrano/contentaudit/internal/queue"
)

const jobTimeout = 10 * time.Minute

// Auditor is satisfied by *pipeline.Pipeline.
type Auditor interface {
	ProcessContent(ctx context.Context, in models.RawInput, opts pipeline.Options) (models.AuditResult, error)
}

type Processor struct {
	queue       *queue.Queue
	auditor     Auditor
	notifier    *notifier.Notifier
	watchDir    string
	maxFileSize int64
	log         *zap.Logger
	ctx         context.Context
	done        chan struct{}
	stopped     chan struct{}
}

// New builds a processor. Relative file paths in requests resolve against
// watchDir; files larger than maxFileSize are refused before being read.
func New(q *queue.Queue, auditor Auditor, ntfy *notifier.Notifier, watchDir string, maxFileSize int64, log *zap.Logger) *Processor {
	return &Processor{
		queue:       q,
		auditor:     auditor,
		notifier:    ntfy,
		watchDir:    watchDir,
		maxFileSize: maxFileSize,
		log:         logger.OrNop(log),
		ctx:         context.Background(),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Start runs the worker. Cancelling ctx cancels the job in flight, which
// goes back to pending so the next run picks it up again.
func (p *Processor) Start(ctx context.Context) {
	p.ctx = ctx
	go p.run()
	p.queue.Notify()
}

// Stop waits for the job in flight to finish.
func (p *Processor) Stop() {
	close(p.done)
	<-p.stopped
}

func (p *Processor) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.done:
			return
		case <-p.ctx.Done():
			return
		case <-p.queue.Wait():
			p.processQueue()
		}
	}
}

func (p *Processor) processQueue() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ctx.Done():
			return
		default:
		}

		job := p.queue.Dequeue()
		if job == nil {
			return
		}
		p.processJob(job)
	}
}

func (p *Processor) processJob(job *models.Job) {
	log := p.log.With(zap.String("job_id", job.ID), zap.String("target", job.Target()))
	log.Info("Processing audit job")

	ctx, cancel := context.WithTimeout(p.ctx, jobTimeout)
	defer cancel()

	in, err := p.buildInput(job.Request)
	if err != nil {
		p.failJob(job, err)
		return
	}

	result, err := p.auditor.ProcessContent(ctx, in, pipeline.Options{
		UserID:       job.Request.UserID,
		Category:     job.Request.Category,
		AnalysisMode: job.Request.AnalysisMode,
	})
	if p.ctx.Err() != nil {
		p.requeueJob(job)
		return
	}
	if err != nil {
		p.failJob(job, err)
		return
	}

	job.Result = &result
	job.ContentType = pipeline.ResolveContentType(in)
	if p.notifier != nil {
		if err := p.notifier.SendResult(ctx, job); err != nil {
			log.Warn("Failed to send result notification", zap.Error(err))
		}
	}

	p.completeJob(job)
}

// buildInput turns a request into the pipeline's input. Text wins over URL
// and URL over file, as in content detection.
func (p *Processor) buildInput(req models.Request) (models.RawInput, error) {
	switch {
	case req.Text != "":
		return models.TextInput(req.Text), nil
	case req.URL != "":
		return models.URLInput(req.URL), nil
	case req.File != "":
		data, err := p.readFile(req.File)
		if err != nil {
			return models.RawInput{}, err
		}
		return models.FileInput(data, req.MIMEType, filepath.Base(req.File)), nil
	}
	return models.RawInput{}, fmt.Errorf("request names no text, url or file")
}

func (p *Processor) readFile(name string) ([]byte, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.watchDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if p.maxFileSize > 0 {
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		if info.Size() > p.maxFileSize {
			return nil, fmt.Errorf("%s is %d bytes, limit is %d", name, info.Size(), p.maxFileSize)
		}
	}
	return io.ReadAll(f)
}

func (p *Processor) failJob(job *models.Job, err error) {
	job.Status = models.JobStatusFailed
	job.Error = err.Error()
	job.UpdatedAt = time.Now()

	p.log.Error("Audit job failed", zap.String("job_id", job.ID), zap.Error(err))

	if p.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if notifyErr := p.notifier.SendFailure(ctx, job); notifyErr != nil {
			p.log.Warn("Failed to send failure notification", zap.String("job_id", job.ID), zap.Error(notifyErr))
		}
	}

	_ = p.queue.Update(job)
}

// requeueJob returns an interrupted job to pending and keeps its request
// file.
func (p *Processor) requeueJob(job *models.Job) {
	job.Status = models.JobStatusPending
	job.UpdatedAt = time.Now()
	p.log.Info("Audit job interrupted, left pending", zap.String("job_id", job.ID))
	_ = p.queue.Update(job)
}

func (p *Processor) completeJob(job *models.Job) {
	job.Status = models.JobStatusCompleted
	job.UpdatedAt = time.Now()

	p.log.Info("Audit job completed",
		zap.String("job_id", job.ID),
		zap.String("status", job.Result.Status),
		zap.Float64("score", job.Result.Score),
	)

	if job.FilePath != "" {
		if err := os.Remove(job.FilePath); err != nil && !os.IsNotExist(err) {
			p.log.Warn("Failed to remove request file", zap.String("path", job.FilePath), zap.Error(err))
		}
	}

	_ = p.queue.Remove(job.ID)
}
