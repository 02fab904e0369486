// Package main provides a payload that exits cleanly without writing its
// result file, for tests.
package main

import "fmt"

func main() {
	fmt.Println("done, but no output file")
}
