package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nostrcast/internal/config"
	"nostrcast/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPublished(context.Background(), "nevent1abc", 2); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name          string
		send          func(svc notifications.Service) error
		expectTitle   string
		expectBody    string
		expectPriority string
	}{
		{
			name: "published",
			send: func(svc notifications.Service) error {
				return svc.NotifyPublished(context.Background(), "nevent1abc", 3)
			},
			expectTitle: "nostrcast - Published",
			expectBody:  "nevent1abc",
		},
		{
			name: "error",
			send: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("upload exhausted"), "sink chain")
			},
			expectTitle:    "nostrcast - Error",
			expectBody:     "Error with sink chain: upload exhausted",
			expectPriority: "high",
		},
		{
			name: "test",
			send: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle: "nostrcast - Test",
			expectBody:  "Notification system test",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotTitle, gotBody, gotPriority string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotTitle = r.Header.Get("Title")
				gotPriority = r.Header.Get("Priority")
				body, _ := io.ReadAll(r.Body)
				gotBody = string(body)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)

			if err := tc.send(svc); err != nil {
				t.Fatalf("send: %v", err)
			}
			if gotTitle != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, gotTitle)
			}
			if !strings.Contains(gotBody, tc.expectBody) {
				t.Fatalf("expected body containing %q, got %q", tc.expectBody, gotBody)
			}
			if tc.expectPriority != "" && gotPriority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, gotPriority)
			}
		})
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
