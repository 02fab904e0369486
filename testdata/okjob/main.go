// Package main provides a minimal well-behaved payload for tests. It reads
// optional params.json and leaves test_output.json behind.
package main

import (
	"encoding/json"
	"fmt"
	"os"
)

func main() {
	params := map[string]any{}

	if data, err := os.ReadFile("params.json"); err == nil {
		if err := json.Unmarshal(data, &params); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	out := map[string]any{
		"status":     "completed",
		"parameters": params,
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.WriteFile("test_output.json", encoded, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println("ok")
}
