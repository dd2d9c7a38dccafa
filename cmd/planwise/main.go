package main

import (
	"os"

	"github.com/rahul/planwise/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
