package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Request is what a request file asks to audit.
type Request struct {
	UserID       string `json:"user_id" yaml:"user_id"`
	Text         string `json:"text,omitempty" yaml:"text"`
	URL          string `json:"url,omitempty" yaml:"url"`
	File         string `json:"file,omitempty" yaml:"file"`
	MIMEType     string `json:"mime_type,omitempty" yaml:"mime_type"`
	Category     string `json:"category,omitempty" yaml:"category"`
	AnalysisMode string `json:"analysis_mode,omitempty" yaml:"analysis_mode"`
}

type Job struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	FilePath    string       `json:"file_path"`
	Request     Request      `json:"request"`
	ContentType ContentType  `json:"content_type"`
	Status      JobStatus    `json:"status"`
	Result      *AuditResult `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func NewJob(filePath string, req Request) *Job {
	now := time.Now()
	// Extract filename without extension
	base := filepath.Base(filePath)
	filename := strings.TrimSuffix(base, filepath.Ext(base))

	return &Job{
		ID:          uuid.NewString(),
		Filename:    filename,
		FilePath:    filePath,
		Request:     req,
		ContentType: ContentTypeUnknown,
		Status:      JobStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Target describes the audited input for logs and notifications.
func (j *Job) Target() string {
	switch {
	case j.Request.URL != "":
		return j.Request.URL
	case j.Request.File != "":
		return filepath.Base(j.Request.File)
	default:
		return "text input"
	}
}
