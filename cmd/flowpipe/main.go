package main

import (
	"os"

	"github.com/flowpipe/flowpipe/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
