// Package main is the example NSG test-job payload. The gateway executes it
// as an opaque subprocess in the job working directory and collects
// test_output.json after it exits.
package main

import (
	"fmt"
	"os"

	"github.com/sdraeger/nsg-cli/payload"
)

func main() {
	if err := payload.Run(".", os.Stdout, payload.DefaultStepPause); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
