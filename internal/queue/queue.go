// Package queue holds audit jobs between the watcher and the processor.
// The job list is mirrored to a JSON file so pending work survives a
// restart.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/clobrano/contentaudit/internal/models"
)

// DepthRecorder is told the number of pending jobs after every change.
type DepthRecorder interface {
	SetQueueDepth(n int)
}

type Queue struct {
	mu           sync.Mutex
	jobs         []*models.Job
	persistPath  string
	notification chan struct{}
	depth        DepthRecorder
}

// New loads persistPath when it exists. Jobs that were processing when
// the previous run stopped go back to pending. An empty persistPath keeps
// the queue in memory only.
func New(persistPath string, depth DepthRecorder) (*Queue, error) {
	q := &Queue{
		jobs:         make([]*models.Job, 0),
		persistPath:  persistPath,
		notification: make(chan struct{}, 1),
		depth:        depth,
	}

	if err := q.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load queue %s: %w", persistPath, err)
	}
	for _, job := range q.jobs {
		if job.Status == models.JobStatusProcessing {
			job.Status = models.JobStatusPending
		}
	}
	q.reportDepth()

	return q, nil
}

func (q *Queue) Enqueue(job *models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, j := range q.jobs {
		if j.FilePath != "" && j.FilePath == job.FilePath && j.Status != models.JobStatusFailed {
			return nil
		}
	}
	q.jobs = append(q.jobs, job)
	q.reportDepth()
	q.Notify()

	return q.persist()
}

// Dequeue marks the oldest pending job as processing and returns it, or
// nil when nothing is pending.
func (q *Queue) Dequeue() *models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.Status == models.JobStatusPending {
			job.Status = models.JobStatusProcessing
			job.UpdatedAt = time.Now()
			q.reportDepth()
			_ = q.persist()
			return job
		}
	}
	return nil
}

func (q *Queue) Update(job *models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, j := range q.jobs {
		if j.ID == job.ID {
			q.jobs[i] = job
			q.reportDepth()
			return q.persist()
		}
	}
	return nil
}

func (q *Queue) Remove(jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, j := range q.jobs {
		if j.ID == jobID {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			q.reportDepth()
			return q.persist()
		}
	}
	return nil
}

func (q *Queue) Wait() <-chan struct{} {
	return q.notification
}

func (q *Queue) Notify() {
	select {
	case q.notification <- struct{}{}:
	default:
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pendingLocked()
}

func (q *Queue) pendingLocked() int {
	count := 0
	for _, job := range q.jobs {
		if job.Status == models.JobStatusPending {
			count++
		}
	}
	return count
}

func (q *Queue) reportDepth() {
	if q.depth != nil {
		q.depth.SetQueueDepth(q.pendingLocked())
	}
}

func (q *Queue) persist() error {
	if q.persistPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(q.jobs, "", "  ")
	if err != nil {
		return err
	}

	tmp := q.persistPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, q.persistPath)
}

func (q *Queue) load() error {
	if q.persistPath == "" {
		return nil
	}

	data, err := os.ReadFile(q.persistPath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &q.jobs)
}
