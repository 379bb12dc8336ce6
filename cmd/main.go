package main

import (
	"os"

	"medicohub-assessment-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
