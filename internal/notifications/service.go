package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whisperbatch/internal/config"
)

const userAgent = "whisperbatch/0.1.0"

// RunSummary describes a finished batch run.
type RunSummary struct {
	RunID       string
	Interrupted bool
	Total       int
	Success     int
	Failed      int
	Skipped     int
	Duration    time.Duration
	OutputDir   string
}

// Service is the notification surface used by the pipeline and the CLI.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyRunFailed(ctx context.Context, runID string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op when cfg has no topic.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := cfg.NtfyTopic()
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.NtfyRequestTimeout()},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, s RunSummary) error {
	duration := s.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	data := payload{tags: []string{"whisperbatch", "run"}}
	switch {
	case s.Interrupted:
		data.title = "whisperbatch - Run Interrupted"
		data.tags = append(data.tags, "interrupted")
	case s.Failed > 0:
		data.title = "whisperbatch - Run Complete (with errors)"
		data.tags = append(data.tags, "warning")
		data.priority = "high"
	default:
		data.title = "whisperbatch - Run Complete"
		data.tags = append(data.tags, "completed")
	}
	data.message = fmt.Sprintf("%d transcribed, %d failed, %d skipped of %d files in %s",
		s.Success, s.Failed, s.Skipped, s.Total, duration)
	if dir := strings.TrimSpace(s.OutputDir); dir != "" {
		data.message += "\nOutput: " + dir
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, runID string, err error) error {
	var b strings.Builder
	b.WriteString("Run failed")
	if runID = strings.TrimSpace(runID); runID != "" {
		b.WriteString(" (")
		b.WriteString(runID)
		b.WriteString(")")
	}
	b.WriteString(": ")
	if err != nil {
		b.WriteString(strings.TrimSpace(err.Error()))
	} else {
		b.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "whisperbatch - Error",
		message:  b.String(),
		tags:     []string{"whisperbatch", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "whisperbatch - Test",
		message:  "Notification system test",
		tags:     []string{"whisperbatch", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
