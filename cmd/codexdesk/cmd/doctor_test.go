package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/brianly1003/codexdesk/internal/adapters/settings"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
)

func TestExtractCommandName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantCmd string
	}{
		{name: "empty", input: "", wantCmd: ""},
		{name: "simple", input: "codex", wantCmd: "codex"},
		{name: "with flags", input: "codex --version", wantCmd: "codex"},
		{name: "with spaces", input: "  codex   exec  ", wantCmd: "codex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractCommandName(tt.input)
			if got != tt.wantCmd {
				t.Fatalf("extractCommandName(%q) = %q, want %q", tt.input, got, tt.wantCmd)
			}
		})
	}
}

func TestSummarizeDoctorChecks(t *testing.T) {
	checks := []doctorCheck{
		{ID: "a", Status: doctorStatusOK},
		{ID: "b", Status: doctorStatusWarn},
		{ID: "c", Status: doctorStatusFail},
		{ID: "d", Status: doctorStatusOK},
	}

	summary := summarizeDoctorChecks(checks)
	if summary.Total != 4 || summary.OK != 2 || summary.Warn != 1 || summary.Fail != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name    string
		summary doctorSummary
		want    doctorStatus
	}{
		{
			name:    "all ok",
			summary: doctorSummary{Total: 2, OK: 2, Warn: 0, Fail: 0},
			want:    doctorStatusOK,
		},
		{
			name:    "warn only",
			summary: doctorSummary{Total: 2, OK: 1, Warn: 1, Fail: 0},
			want:    doctorStatusWarn,
		},
		{
			name:    "fail takes precedence",
			summary: doctorSummary{Total: 3, OK: 1, Warn: 1, Fail: 1},
			want:    doctorStatusFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overallStatus(tt.summary)
			if got != tt.want {
				t.Fatalf("overallStatus(%+v) = %q, want %q", tt.summary, got, tt.want)
			}
		})
	}
}

type fakeInstallChecker struct {
	status ports.InstallStatus
}

func (f fakeInstallChecker) CheckInstalled(ctx context.Context) ports.InstallStatus {
	return f.status
}

func TestCheckCodexVersion(t *testing.T) {
	ok := checkCodexVersion(context.Background(), fakeInstallChecker{
		status: ports.InstallStatus{Installed: true, Version: "codex-cli 0.5.0"},
	})
	if ok.Status != doctorStatusOK {
		t.Fatalf("status = %s, want ok", ok.Status)
	}
	if ok.Details["version"] != "codex-cli 0.5.0" {
		t.Errorf("version detail = %v", ok.Details["version"])
	}

	missing := checkCodexVersion(context.Background(), fakeInstallChecker{
		status: ports.InstallStatus{Error: "codex not found: exec: \"codex\": executable file not found in $PATH"},
	})
	if missing.Status != doctorStatusFail {
		t.Fatalf("status = %s, want fail", missing.Status)
	}
	if !strings.Contains(missing.Remediation, "npm i -g @openai/codex") {
		t.Errorf("remediation %q should carry the install hint", missing.Remediation)
	}
}

func TestCheckCommandBinary_Missing(t *testing.T) {
	check := checkCommandBinary("runtime.codex_cli", "codexdesk-definitely-missing-binary", true)
	if check.Status != doctorStatusFail {
		t.Fatalf("status = %s, want fail", check.Status)
	}

	optional := checkCommandBinary("runtime.other", "codexdesk-definitely-missing-binary", false)
	if optional.Status != doctorStatusWarn {
		t.Fatalf("status = %s, want warn", optional.Status)
	}

	empty := checkCommandBinary("runtime.codex_cli", "  ", true)
	if empty.Status != doctorStatusFail {
		t.Fatalf("status = %s, want fail", empty.Status)
	}
}

func TestCheckStateDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "codexdesk.db")

	check, project := checkStateDatabase(dbPath)
	if check.Status != doctorStatusWarn || project != "" {
		t.Fatalf("missing database: status = %s, project = %q", check.Status, project)
	}

	store, err := settings.Open(dbPath)
	if err != nil {
		t.Fatalf("settings.Open() error = %v", err)
	}
	want := t.TempDir()
	if err := store.SetLastProjectPath(context.Background(), want); err != nil {
		t.Fatalf("SetLastProjectPath() error = %v", err)
	}
	store.Close()

	check, project = checkStateDatabase(dbPath)
	if check.Status != doctorStatusOK {
		t.Fatalf("status = %s (%s), want ok", check.Status, check.Message)
	}
	if project != want {
		t.Errorf("project = %q, want %q", project, want)
	}
}

func TestCheckLastProject(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want doctorStatus
	}{
		{name: "none", path: "", want: doctorStatusOK},
		{name: "exists", path: dir, want: doctorStatusOK},
		{name: "missing", path: filepath.Join(dir, "gone"), want: doctorStatusWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkLastProject(tt.path).Status; got != tt.want {
				t.Errorf("checkLastProject(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("SplitHostPort() error = %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	check := checkHealthEndpoint(host, port, 2)
	if check.Status != doctorStatusOK {
		t.Fatalf("status = %s (%s), want ok", check.Status, check.Message)
	}

	srv.Close()
	check = checkHealthEndpoint(host, port, 1)
	if check.Status != doctorStatusWarn {
		t.Fatalf("status after close = %s, want warn", check.Status)
	}
}

func TestPrintDoctorText(t *testing.T) {
	checks := []doctorCheck{
		{ID: "config.load", Status: doctorStatusOK, Message: "loaded"},
		{ID: "runtime.codex_cli", Status: doctorStatusFail, Message: "missing", Remediation: "install it"},
	}
	summary := summarizeDoctorChecks(checks)
	report := doctorReport{
		Version: "1.0",
		Overall: overallStatus(summary),
		Summary: summary,
		Checks:  checks,
	}

	var buf bytes.Buffer
	printDoctorText(&buf, report)
	out := buf.String()

	for _, want := range []string{"overall: FAIL", "[OK] config.load: loaded", "[FAIL] runtime.codex_cli: missing", "fix: install it"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "fix:") != 1 {
		t.Errorf("only failing checks should print a fix:\n%s", out)
	}
}
