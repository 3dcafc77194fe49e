package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianly1003/codexdesk/internal/adapters/codex"
	"github.com/brianly1003/codexdesk/internal/adapters/settings"
	"github.com/brianly1003/codexdesk/internal/config"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/session"
	"github.com/spf13/cobra"
)

var (
	doctorJSON        bool
	doctorStrict      bool
	doctorHTTPTimeout int
)

type doctorStatus string

const (
	doctorStatusOK   doctorStatus = "ok"
	doctorStatusWarn doctorStatus = "warn"
	doctorStatusFail doctorStatus = "fail"
)

type doctorCheck struct {
	ID          string                 `json:"id"`
	Status      doctorStatus           `json:"status"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Remediation string                 `json:"remediation,omitempty"`
}

type doctorSummary struct {
	Total int `json:"total"`
	OK    int `json:"ok"`
	Warn  int `json:"warn"`
	Fail  int `json:"fail"`
}

type doctorReport struct {
	Version      string        `json:"version"`
	GeneratedAt  string        `json:"generated_at"`
	Overall      doctorStatus  `json:"overall_status"`
	Summary      doctorSummary `json:"summary"`
	Checks       []doctorCheck `json:"checks"`
	SearchConfig []string      `json:"config_search_paths,omitempty"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run local diagnostics with remediation hints",
	Long: `Run read-only diagnostics against the local codexdesk setup and print
actionable hints: configuration, the codex executable, the settings
database, the last project and a running server.

By default the output is human-readable text.
Use --json for machine-readable output.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output machine-readable JSON")
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "return non-zero on warnings")
	doctorCmd.Flags().IntVar(&doctorHTTPTimeout, "http-timeout", 2, "health endpoint timeout in seconds")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := collectDoctorReport(cmd.Context())

	if doctorJSON {
		if err := printDoctorJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		printDoctorText(os.Stdout, report)
	}

	if report.Summary.Fail > 0 {
		return fmt.Errorf("doctor found %d failing check(s)", report.Summary.Fail)
	}
	if doctorStrict && report.Summary.Warn > 0 {
		return fmt.Errorf("doctor strict mode failed with %d warning(s)", report.Summary.Warn)
	}
	return nil
}

func collectDoctorReport(ctx context.Context) doctorReport {
	if ctx == nil {
		ctx = context.Background()
	}
	checks := make([]doctorCheck, 0, 8)

	cfg := defaultDoctorConfig()
	loadedCfg, cfgCheck := checkConfigLoad(cfgFile)
	checks = append(checks, cfgCheck)
	if loadedCfg != nil {
		cfg = loadedCfg
	}

	checks = append(checks, checkConfigDirectory())
	checks = append(checks, checkCommandBinary("runtime.codex_cli", cfg.Codex.Command, true))

	gw := codex.NewGateway(cfg.Codex.Command, cfg.Codex.Args, cfg.Codex.TimeoutMinutes, nil)
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	checks = append(checks, checkCodexVersion(checkCtx, gw))
	cancel()

	stateCheck, lastProject := checkStateDatabase(cfg.State.DBPath())
	checks = append(checks, stateCheck)
	checks = append(checks, checkLastProject(lastProject))

	checks = append(checks, checkHealthEndpoint(cfg.Server.Host, cfg.Server.Port, doctorHTTPTimeout))

	summary := summarizeDoctorChecks(checks)
	return doctorReport{
		Version:      "1.0",
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		Overall:      overallStatus(summary),
		Summary:      summary,
		Checks:       checks,
		SearchConfig: configSearchPaths(cfgFile),
	}
}

func checkConfigLoad(path string) (*config.Config, doctorCheck) {
	cfg, err := config.Load(path)
	searchPaths := configSearchPaths(path)
	if err != nil {
		return nil, doctorCheck{
			ID:      "config.load",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to load config: %v", err),
			Details: map[string]interface{}{
				"config_path":  strings.TrimSpace(path),
				"search_paths": searchPaths,
			},
			Remediation: "Fix the config file, or run `codexdesk config init --force` to regenerate defaults.",
		}
	}

	source := findFirstExistingPath(searchPaths)
	msg := "Configuration loaded using built-in defaults and environment overrides"
	if source != "" {
		msg = "Configuration loaded successfully"
	}

	return cfg, doctorCheck{
		ID:      "config.load",
		Status:  doctorStatusOK,
		Message: msg,
		Details: map[string]interface{}{
			"loaded_from":  source,
			"search_paths": searchPaths,
		},
	}
}

func checkConfigDirectory() doctorCheck {
	dir, err := config.GetConfigDir()
	if err != nil {
		return doctorCheck{
			ID:          "config.directory",
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Failed to resolve config directory: %v", err),
			Remediation: "Verify your HOME environment and filesystem permissions.",
		}
	}

	info, statErr := os.Stat(dir)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return doctorCheck{
				ID:      "config.directory",
				Status:  doctorStatusWarn,
				Message: "Config directory does not exist yet",
				Details: map[string]interface{}{
					"path": dir,
				},
				Remediation: "Run `codexdesk config init` to create initial local configuration.",
			}
		}
		return doctorCheck{
			ID:      "config.directory",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to access config directory: %v", statErr),
			Details: map[string]interface{}{
				"path": dir,
			},
			Remediation: "Fix directory permissions or create the directory manually.",
		}
	}

	if !info.IsDir() {
		return doctorCheck{
			ID:      "config.directory",
			Status:  doctorStatusFail,
			Message: "Config path exists but is not a directory",
			Details: map[string]interface{}{
				"path": dir,
			},
			Remediation: "Remove the file and recreate directory with `mkdir -p ~/.codexdesk`.",
		}
	}

	return doctorCheck{
		ID:      "config.directory",
		Status:  doctorStatusOK,
		Message: "Config directory is available",
		Details: map[string]interface{}{
			"path": dir,
		},
	}
}

func checkCommandBinary(id, command string, recommended bool) doctorCheck {
	execName := extractCommandName(command)
	if execName == "" {
		return doctorCheck{
			ID:          id,
			Status:      doctorStatusFail,
			Message:     "Command is empty",
			Remediation: "Set the command in config to a valid executable name or absolute path.",
		}
	}

	resolved, err := exec.LookPath(execName)
	if err != nil {
		status := doctorStatusWarn
		remediation := fmt.Sprintf("Install `%s` and ensure it is available in PATH.", execName)
		if recommended {
			status = doctorStatusFail
			remediation = fmt.Sprintf("Install `%s` (%s) or update codex.command in config.",
				execName, strings.Join(session.InstallHints, " or "))
		}
		return doctorCheck{
			ID:      id,
			Status:  status,
			Message: fmt.Sprintf("Command not found in PATH: %s", execName),
			Details: map[string]interface{}{
				"configured": command,
			},
			Remediation: remediation,
		}
	}

	return doctorCheck{
		ID:      id,
		Status:  doctorStatusOK,
		Message: "Command is available",
		Details: map[string]interface{}{
			"configured": command,
			"resolved":   resolved,
		},
	}
}

// installChecker is satisfied by the codex gateway.
type installChecker interface {
	CheckInstalled(ctx context.Context) ports.InstallStatus
}

func checkCodexVersion(ctx context.Context, checker installChecker) doctorCheck {
	status := checker.CheckInstalled(ctx)
	if !status.Installed {
		return doctorCheck{
			ID:      "runtime.codex_version",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("%s: %s", session.InstallAdvisory, status.Error),
			Remediation: fmt.Sprintf("Install codex with `%s`, then run `codexdesk doctor` again.",
				strings.Join(session.InstallHints, "` or `")),
		}
	}

	return doctorCheck{
		ID:      "runtime.codex_version",
		Status:  doctorStatusOK,
		Message: "codex responds to --version",
		Details: map[string]interface{}{
			"version": status.Version,
		},
	}
}

// checkStateDatabase inspects the settings database without creating it
// and returns the stored project path.
func checkStateDatabase(dbPath string) (doctorCheck, string) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return doctorCheck{
				ID:      "state.database",
				Status:  doctorStatusWarn,
				Message: "Settings database does not exist yet",
				Details: map[string]interface{}{
					"path": dbPath,
				},
				Remediation: "Run `codexdesk chat` or `codexdesk serve` and select a project to create it.",
			}, ""
		}
		return doctorCheck{
			ID:      "state.database",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to access settings database: %v", err),
			Details: map[string]interface{}{
				"path": dbPath,
			},
			Remediation: "Check file permissions and ownership.",
		}, ""
	}

	store, err := settings.Open(dbPath)
	if err != nil {
		return doctorCheck{
			ID:      "state.database",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to open settings database: %v", err),
			Details: map[string]interface{}{
				"path": dbPath,
			},
			Remediation: "Move the database aside; it only stores the last project path and is recreated on start.",
		}, ""
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	project, err := store.LastProjectPath(ctx)
	if err != nil {
		return doctorCheck{
			ID:      "state.database",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to read settings database: %v", err),
			Details: map[string]interface{}{
				"path": dbPath,
			},
			Remediation: "Move the database aside; it only stores the last project path and is recreated on start.",
		}, ""
	}

	return doctorCheck{
		ID:      "state.database",
		Status:  doctorStatusOK,
		Message: "Settings database is readable",
		Details: map[string]interface{}{
			"path":         dbPath,
			"last_project": project,
		},
	}, project
}

func checkLastProject(path string) doctorCheck {
	if strings.TrimSpace(path) == "" {
		return doctorCheck{
			ID:      "project.last",
			Status:  doctorStatusOK,
			Message: "No project remembered",
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return doctorCheck{
			ID:      "project.last",
			Status:  doctorStatusWarn,
			Message: fmt.Sprintf("Last project is not accessible: %v", err),
			Details: map[string]interface{}{
				"path": path,
			},
			Remediation: "Select another project; the stale path is ignored on start.",
		}
	}
	if !info.IsDir() {
		return doctorCheck{
			ID:      "project.last",
			Status:  doctorStatusWarn,
			Message: "Last project is not a directory",
			Details: map[string]interface{}{
				"path": path,
			},
			Remediation: "Select another project; the stale path is ignored on start.",
		}
	}

	return doctorCheck{
		ID:      "project.last",
		Status:  doctorStatusOK,
		Message: "Last project is available",
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

func checkHealthEndpoint(host string, port, timeoutSeconds int) doctorCheck {
	if strings.TrimSpace(host) == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 8790
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 2
	}

	url := fmt.Sprintf("http://%s:%d/health", host, port)
	client := &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return doctorCheck{
			ID:      "server.health_endpoint",
			Status:  doctorStatusWarn,
			Message: fmt.Sprintf("Health endpoint is not reachable: %v", err),
			Details: map[string]interface{}{
				"url": url,
			},
			Remediation: "Start the server with `codexdesk serve` and verify host/port configuration.",
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return doctorCheck{
			ID:      "server.health_endpoint",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Health endpoint returned non-200 status: %d", resp.StatusCode),
			Details: map[string]interface{}{
				"url":         url,
				"status_code": resp.StatusCode,
				"body":        strings.TrimSpace(string(body)),
			},
			Remediation: "Check server logs (`codexdesk serve -v`) to diagnose HTTP startup issues.",
		}
	}

	return doctorCheck{
		ID:      "server.health_endpoint",
		Status:  doctorStatusOK,
		Message: "Health endpoint is reachable",
		Details: map[string]interface{}{
			"url":         url,
			"status_code": resp.StatusCode,
		},
	}
}

func summarizeDoctorChecks(checks []doctorCheck) doctorSummary {
	summary := doctorSummary{Total: len(checks)}
	for _, check := range checks {
		switch check.Status {
		case doctorStatusOK:
			summary.OK++
		case doctorStatusWarn:
			summary.Warn++
		case doctorStatusFail:
			summary.Fail++
		}
	}
	return summary
}

func overallStatus(summary doctorSummary) doctorStatus {
	if summary.Fail > 0 {
		return doctorStatusFail
	}
	if summary.Warn > 0 {
		return doctorStatusWarn
	}
	return doctorStatusOK
}

func printDoctorJSON(w io.Writer, report doctorReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func printDoctorText(w io.Writer, report doctorReport) {
	fmt.Fprintf(w, "codexdesk doctor v%s\n", report.Version)
	fmt.Fprintf(w, "generated_at: %s\n", report.GeneratedAt)
	fmt.Fprintf(w, "overall: %s  (ok=%d warn=%d fail=%d total=%d)\n\n",
		strings.ToUpper(string(report.Overall)),
		report.Summary.OK,
		report.Summary.Warn,
		report.Summary.Fail,
		report.Summary.Total,
	)

	for _, check := range report.Checks {
		label := "[OK]"
		if check.Status == doctorStatusWarn {
			label = "[WARN]"
		}
		if check.Status == doctorStatusFail {
			label = "[FAIL]"
		}

		fmt.Fprintf(w, "%s %s: %s\n", label, check.ID, check.Message)
		if check.Remediation != "" && check.Status != doctorStatusOK {
			fmt.Fprintf(w, "  fix: %s\n", check.Remediation)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tip: run `codexdesk doctor --json` for machine-readable output.")
}

func defaultDoctorConfig() *config.Config {
	stateDir, _ := config.GetConfigDir()
	return &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 8790,
		},
		Codex: config.CodexConfig{
			Command: "codex",
			Args:    config.DefaultCodexArgs,
		},
		State: config.StateConfig{
			Dir: stateDir,
		},
	}
}

func configSearchPaths(explicit string) []string {
	if strings.TrimSpace(explicit) != "" {
		return []string{explicit}
	}

	home := userHomeDir()
	return []string{
		filepath.Join(".", "config.yaml"),
		filepath.Join(home, ".codexdesk", "config.yaml"),
		"/etc/codexdesk/config.yaml",
	}
}

func findFirstExistingPath(paths []string) string {
	for _, candidate := range paths {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func extractCommandName(command string) string {
	parts := strings.Fields(strings.TrimSpace(command))
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
