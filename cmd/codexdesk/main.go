// Package main is the entry point for codexdesk.
//
//	@title			codexdesk API
//	@version		1.0
//	@description	Local chat shell around the codex CLI.
//	@description	Sends messages to codex exec scoped to a project directory and streams the answer back.
//
//	@contact.name	Brian Ly
//	@contact.url	https://github.com/brianly1003/codexdesk
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8790
//	@BasePath	/
//	@schemes	http
//
//	@tag.name			health
//	@tag.description	Health check endpoints
//	@tag.name			session
//	@tag.description	Chat session intents and snapshot
//	@tag.name			install
//	@tag.description	codex installation status
//	@tag.name			pairing
//	@tag.description	QR code for connecting another device
package main

import (
	"fmt"
	"os"

	"github.com/brianly1003/codexdesk/cmd/codexdesk/cmd"

	_ "github.com/brianly1003/codexdesk/api/swagger" // swagger docs
)

// Version information (set by ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd.SetVersionInfo(Version, BuildTime, GitCommit)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
