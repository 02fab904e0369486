// Package main provides a payload that always fails, for tests.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "payload blew up")
	os.Exit(3)
}
