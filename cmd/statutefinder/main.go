package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgallion1/statutefinder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrNoPath) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
