package main

import (
	"os"

	"github.com/rvadriving/scheduler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
