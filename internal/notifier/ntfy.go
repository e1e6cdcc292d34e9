// Package notifier pushes audit outcomes to an ntfy.sh topic.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clobrano/contentaudit/internal/models"
)

const defaultServer = "https://ntfy.sh"

type Notifier struct {
	server string
	topic  string
	client *http.Client
}

// New returns nil when topic is empty; a nil *Notifier sends nothing.
func New(topic string) *Notifier {
	if topic == "" {
		return nil
	}
	return &Notifier{
		server: defaultServer,
		topic:  topic,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithServer points the notifier at a self-hosted ntfy instance.
func (n *Notifier) WithServer(server string) *Notifier {
	if n != nil && server != "" {
		n.server = strings.TrimRight(server, "/")
	}
	return n
}

// SendResult reports a finished audit. Placeholder results ("Needs
// Review" with score 0) are sent at high priority.
func (n *Notifier) SendResult(ctx context.Context, job *models.Job) error {
	if n == nil || n.topic == "" || job.Result == nil {
		return nil
	}
	r := job.Result

	title := fmt.Sprintf("Audit %s: %s", r.Status, job.ContentType)
	var msg strings.Builder
	fmt.Fprintf(&msg, "%s\n\nScore: %.0f/100\n", job.Target(), r.Score)
	if len(r.Violations) > 0 {
		fmt.Fprintf(&msg, "Violations: %d\n", len(r.Violations))
	}
	fmt.Fprintf(&msg, "\n%s\n\nJob ID: %s", r.Summary, job.ID)

	priority, tags := "default", "white_check_mark"
	switch {
	case r.Status == models.StatusNonCompliant:
		priority, tags = "high", "warning"
	case r.Status == models.StatusNeedsReview && r.Score == 0:
		priority, tags = "high", "grey_question"
	}
	return n.send(ctx, title, msg.String(), priority, tags)
}

func (n *Notifier) SendFailure(ctx context.Context, job *models.Job) error {
	if n == nil || n.topic == "" {
		return nil
	}

	title := "Audit request failed"
	message := fmt.Sprintf("Failed to process %s\n\nError: %s\n\nJob ID: %s", job.Target(), job.Error, job.ID)

	return n.send(ctx, title, message, "high", "x")
}

func (n *Notifier) send(ctx context.Context, title, message, priority, tags string) error {
	url := fmt.Sprintf("%s/%s", n.server, n.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return err
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	return nil
}
