// titlelab scores marketplace listing titles against keyword exports.
// Single binary: a local daemon with a web dashboard, plus a CLI.
package main

import (
	"os"

	"github.com/corey/titlelab/cmd/titlelab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
