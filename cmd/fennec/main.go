package main

import (
	"os"

	"github.com/fennec-ai/fennec/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
