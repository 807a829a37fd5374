package main

import (
	"os"

	cmd "github.com/spqsync/spqsync/internal"
	"github.com/spqsync/spqsync/internal/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.LogError(err.Error())
		os.Exit(1)
	}
}
