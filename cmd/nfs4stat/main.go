package main

import (
	"fmt"
	"os"

	"github.com/wujs/libnfs/cmd/nfs4stat/commands"
	"github.com/wujs/libnfs/internal/logger"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := logger.Init(logger.Config{Level: "INFO", Format: "text", Output: "stderr"}); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
