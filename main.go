package main

import (
	"os"

	"github.com/spigell/expert-scout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
