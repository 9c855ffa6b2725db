package main

import (
	"os"

	"github.com/ecogate-dev/ecogate/internal/console"
)

func main() {
	if err := console.Execute(); err != nil {
		os.Exit(1)
	}
}
