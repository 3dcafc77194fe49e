package app

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianly1003/codexdesk/internal/session"
	"github.com/lmittmann/tint"
)

// NewLogger creates the slog logger used for HTTP request logs.
func NewLogger(w io.Writer, level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "trace", "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.Kitchen,
	}))
}

// PrintConnectionInfo prints connection information to out.
func (a *App) PrintConnectionInfo(out io.Writer) {
	project := "(none selected)"
	if path := a.controller.ProjectPath(); path != "" {
		project = filepath.Base(path)
	}

	httpURL := "http://" + a.ServerAddr()
	if a.cfg.Server.ExternalURL != "" {
		httpURL = a.cfg.Server.ExternalURL
	}
	wsURL := "ws" + strings.TrimPrefix(strings.TrimRight(httpURL, "/"), "http") + "/ws"

	fmt.Fprintln(out)
	fmt.Fprintln(out, "╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║                     codexdesk ready                        ║")
	fmt.Fprintln(out, "╠════════════════════════════════════════════════════════════╣")
	fmt.Fprintf(out, "║  Project:    %-46s ║\n", truncateString(project, 46))
	fmt.Fprintf(out, "║  API:        %-46s ║\n", truncateString(httpURL, 46))
	fmt.Fprintf(out, "║  WebSocket:  %-46s ║\n", truncateString(wsURL, 46))
	fmt.Fprintf(out, "║  Docs:       %-46s ║\n", truncateString(httpURL+"/swagger/", 46))
	fmt.Fprintln(out, "╚════════════════════════════════════════════════════════════╝")

	if advisory := session.AdvisoryText(a.controller.InstallStatus()); advisory != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, advisory)
	}

	if a.cfg.Pairing.ShowQRInTerminal {
		if qr := a.QRGenerator(); qr != nil {
			qr.Print(out)
		}
	}
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
