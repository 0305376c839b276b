package main

import (
	"os"

	"github.com/flowstate-hq/flowstate-intents/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
