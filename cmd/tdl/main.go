package main

import (
	"os"

	"github.com/tgienger/tdl/internal/cli"
	"github.com/tgienger/tdl/internal/di/providers"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(providers.BuildInfo{Version: version, Commit: commit, Date: date}); err != nil {
		os.Exit(1)
	}
}
