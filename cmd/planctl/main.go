package main

import (
	"os"

	"github.com/noah-isme/study-planner-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
