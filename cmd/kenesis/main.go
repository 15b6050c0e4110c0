package main

import (
	"os"

	"github.com/kenesis-labs/kenesis-engine/cmd/kenesis/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
