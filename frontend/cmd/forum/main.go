package main

import (
	"os"

	"github.com/itchan-dev/discussion/frontend/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
