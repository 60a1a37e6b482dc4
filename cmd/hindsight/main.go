package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/runnerr0/hindsight/internal/cli"
)

var version = "0.1.0"

func main() {
	// A local .env may carry HINDSIGHT_* overrides; absence is fine.
	_ = godotenv.Load()

	if err := cli.Run(version); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
