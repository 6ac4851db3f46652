package main

import (
	"os"

	"basegraph.app/insight/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
