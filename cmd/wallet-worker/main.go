// Command wallet-worker consumes inbound notifications from AMQP. It is
// "wallet consume" packaged as its own binary for deployments that run the
// API and the consumer separately.
package main

import (
	"os"

	"wallet/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	root.SetArgs(append([]string{"consume"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
