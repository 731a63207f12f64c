package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	log.SetReportTimestamp(true)

	runner := NewRunner(RunnerOpts{Output: os.Stdout})
	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		log.Fatal("tuneboxctl failed", "err", err)
	}
}
