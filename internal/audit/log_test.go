package audit

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/obs"
)

func TestLogEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs.SetLogger(zap.New(core))
	defer obs.SetLogger(nil)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithIdentity(ctx, auth.Identity{UserID: "user-42", OrgID: "org-7"})

	if err := LogEvent(ctx, "job.removed", zap.String("job_id", "job-1")); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["type"] != "audit" {
		t.Fatalf("unexpected type: %v", fields["type"])
	}
	if fields["event"] != "job.removed" {
		t.Fatalf("unexpected event: %v", fields["event"])
	}
	if fields["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", fields["request_id"])
	}
	if fields["user_id"] != "user-42" || fields["org_id"] != "org-7" {
		t.Fatalf("unexpected caller: %v %v", fields["user_id"], fields["org_id"])
	}
	extra, ok := fields["fields"].(map[string]any)
	if !ok || extra["job_id"] != "job-1" {
		t.Fatalf("fields missing or incorrect: %v", fields["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank event")
	}
}

func TestAnonymousEventOmitsCaller(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs.SetLogger(zap.New(core))
	defer obs.SetLogger(nil)

	if err := LogEvent(context.Background(), "auth.login_failed"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	fields := logs.All()[0].ContextMap()
	if _, ok := fields["user_id"]; ok {
		t.Fatalf("unexpected user id: %v", fields)
	}
	if _, ok := fields["request_id"]; ok {
		t.Fatalf("unexpected request id: %v", fields)
	}
}
