// Command wayfarer is the command-line travel companion: walking routes,
// weather-aware day plans, forecasts, phrasebook and translation.
package main

import (
	"fmt"
	"os"

	"github.com/neexbeast/wayfarer/internal/config"
)

func main() {
	root := newRootCmd(func() (config.Config, error) { return config.Load() })
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
