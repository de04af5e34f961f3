package main

import (
	"os"

	"github.com/eduwise/studyplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
