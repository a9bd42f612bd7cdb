// Command wallet serves the JSON API and runs the maintenance commands.
package main

import (
	"os"

	"wallet/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
