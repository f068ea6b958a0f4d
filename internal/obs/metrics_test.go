package obs

import (
	"testing"

	"go.uber.org/zap"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                  "/",
		"/metrics":                          "/metrics",
		"/v1/jobs/01HX":                     "/v1/jobs/:id",
		"/v1/applications/01HX/status":      "/v1/applications/:id/status",
		"/v1/organizations/o1/jobs":         "/v1/organizations/:id/jobs",
		"/v1/organizations/o1/applications": "/v1/organizations/:id/applications",
		"/v1/organizations/o1/extra":        "/v1/organizations/o1/extra",
		"/v1/users/candidate":               "/v1/users/candidate",
		"/v1/users/u1":                      "/v1/users/:id",
		"/v1/auth/login":                    "/v1/auth/login",

		"/v1/organizations/o1/jobs/analytics?title=go": "/v1/organizations/:id/jobs/analytics",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug", "console"); err != nil {
		t.Fatalf("NewLogger console: %v", err)
	}
	if _, err := NewLogger("", ""); err != nil {
		t.Fatalf("NewLogger defaults: %v", err)
	}
	if _, err := NewLogger("loud", "json"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := NewLogger("info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestSetLoggerNilInstallsNop(t *testing.T) {
	SetLogger(nil)
	if Logger() == nil {
		t.Fatalf("expected non-nil logger")
	}
	l := zap.NewExample()
	SetLogger(l)
	if Logger() != l {
		t.Fatalf("expected installed logger")
	}
	SetLogger(nil)
}
