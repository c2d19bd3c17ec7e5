package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whisperbatch/internal/config"
	"whisperbatch/internal/notifications"
)

type received struct {
	title    string
	message  string
	tags     string
	priority string
}

func newNtfyServer(t *testing.T, status int, got *[]received) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*got = append(*got, received{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serviceFor(url string) notifications.Service {
	cfg := config.FromMap(map[string]any{
		"notifications": map[string]any{"ntfy_topic": url},
	})
	return notifications.NewService(cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(config.FromMap(nil))
	if err := svc.NotifyRunCompleted(context.Background(), notifications.RunSummary{Total: 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestRunCompletedPayloads(t *testing.T) {
	tests := []struct {
		name           string
		summary        notifications.RunSummary
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "clean run",
			summary:       notifications.RunSummary{Total: 3, Success: 2, Skipped: 1, Duration: 90 * time.Second, OutputDir: "/data/out"},
			expectTitle:   "whisperbatch - Run Complete",
			expectMessage: "2 transcribed, 0 failed, 1 skipped of 3 files in 1m30s\nOutput: /data/out",
			expectTags:    "whisperbatch,run,completed",
		},
		{
			name:           "with failures",
			summary:        notifications.RunSummary{Total: 2, Success: 1, Failed: 1, Duration: 2 * time.Second},
			expectTitle:    "whisperbatch - Run Complete (with errors)",
			expectMessage:  "1 transcribed, 1 failed, 0 skipped of 2 files in 2s",
			expectTags:     "whisperbatch,run,warning",
			expectPriority: "high",
		},
		{
			name:          "interrupted",
			summary:       notifications.RunSummary{Interrupted: true, Total: 5, Success: 1},
			expectTitle:   "whisperbatch - Run Interrupted",
			expectMessage: "1 transcribed, 0 failed, 0 skipped of 5 files in 0s",
			expectTags:    "whisperbatch,run,interrupted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []received
			srv := newNtfyServer(t, http.StatusOK, &got)
			if err := serviceFor(srv.URL).NotifyRunCompleted(context.Background(), tt.summary); err != nil {
				t.Fatalf("notify: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(got))
			}
			r := got[0]
			if r.title != tt.expectTitle || r.message != tt.expectMessage || r.tags != tt.expectTags || r.priority != tt.expectPriority {
				t.Fatalf("unexpected payload %#v", r)
			}
		})
	}
}

func TestRunFailedPayload(t *testing.T) {
	var got []received
	srv := newNtfyServer(t, http.StatusOK, &got)
	if err := serviceFor(srv.URL).NotifyRunFailed(context.Background(), "abc", errors.New(" model load failed ")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(got) != 1 || got[0].message != "Run failed (abc): model load failed" || got[0].priority != "high" {
		t.Fatalf("unexpected payload %#v", got)
	}
}

func TestServerErrorIsReturned(t *testing.T) {
	var got []received
	srv := newNtfyServer(t, http.StatusForbidden, &got)
	err := serviceFor(srv.URL).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
