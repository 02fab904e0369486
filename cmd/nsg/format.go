package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	cyan      = color.New(color.FgCyan).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	green     = color.New(color.FgGreen).SprintFunc()
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	red       = color.New(color.FgRed, color.Bold).SprintFunc()
	bold      = color.New(color.Bold).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
)

func rule(width int, ch string) string {
	return strings.Repeat(ch, width)
}

func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func formatTimestamp(ts string) string {
	if dt, err := time.Parse(time.RFC3339, ts); err == nil {
		return dt.UTC().Format("2006-01-02 15:04:05 UTC")
	}

	return ts
}

func stageIcon(stage string) string {
	switch stage {
	case "COMPLETED":
		return boldGreen("✓")
	case "RUNNING", "RUN":
		return yellow("⟳")
	case "QUEUE", "SUBMITTED":
		return cyan("⏳")
	case "FAILED":
		return red("✗")
	default:
		return dim("?")
	}
}

// truncate shortens s to maxLen runes. Gateway messages can carry
// multi-byte text, so cutting on bytes could split a rune.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen]) + "..."
}
