package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sdraeger/nsg-cli"
)

func newDownloadCmd(global *globalOptions) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <job>",
		Short: "Download results from a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(global)
			if err != nil {
				return err
			}

			job := args[0]

			fmt.Println(boldCyan("NSG Results Downloader"))
			fmt.Println(cyan(rule(80, "=")))
			fmt.Println()
			fmt.Printf("%s Checking job status...\n", cyan("→"))
			fmt.Printf("   Job: %s\n", bold(job))
			fmt.Println()

			status, err := client.GetJobStatus(cmd.Context(), job)
			if err != nil {
				return err
			}

			fmt.Printf("Job ID:       %s\n", cyan(status.JobID))
			fmt.Printf("Stage:        %s\n", bold(status.Stage))

			if status.Stage != "COMPLETED" {
				fmt.Println()
				fmt.Printf("%s Job is not completed yet\n", yellow("⚠"))
				fmt.Printf("   Current stage: %s\n", bold(status.Stage))
				fmt.Println()

				if !confirm("Results may not be available. Continue anyway? [y/N] ") {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			fmt.Println()
			fmt.Printf("%s Output directory: %s\n", cyan("→"), bold(outputDir))
			fmt.Println()

			if dirNonEmpty(outputDir) {
				fmt.Printf("%s Directory already exists and is not empty\n", yellow("⚠"))

				if !confirm("   Files may be overwritten. Continue? [y/N] ") {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			fmt.Printf("%s Downloading output files...\n", yellow("→"))
			fmt.Println()

			downloaded, err := client.DownloadResults(cmd.Context(), job, outputDir, newProgressReporter())
			if err != nil {
				return err
			}

			fmt.Println()

			if len(downloaded) == 0 {
				fmt.Printf("%s No output files found\n", yellow("⚠"))
				fmt.Println()
				fmt.Println("This could mean:")
				fmt.Println("  1. Job hasn't produced output files yet")
				fmt.Println("  2. Job failed without creating outputs")
				fmt.Println("  3. Check stderr.txt and stdout.txt for details")

				return nil
			}

			fmt.Printf("%s Downloaded %d file(s):\n", boldGreen("✓"), len(downloaded))
			fmt.Println()

			var totalSize int64

			for _, file := range downloaded {
				totalSize += file.Size

				fmt.Printf("  %s %s (%s)\n", green("✓"), cyan(file.Filename), formatSize(file.Size))
			}

			fmt.Println()
			fmt.Println(green(rule(80, "=")))
			fmt.Printf("%s Download complete!\n", boldGreen("✓"))
			fmt.Println(green(rule(80, "=")))
			fmt.Println()
			fmt.Printf("Location:     %s\n", cyan(outputDir))
			fmt.Printf("Files:        %d\n", len(downloaded))
			fmt.Printf("Total size:   %s\n", formatSize(totalSize))
			fmt.Println()

			printResultHints(outputDir, downloaded)

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "./nsg_results", "output directory")

	return cmd
}

// newProgressReporter renders one byte-progress bar per downloading file.
func newProgressReporter() nsg.ProgressFunc {
	var (
		current string
		bar     *progressbar.ProgressBar
	)

	return func(filename string, downloaded, total int64) {
		if filename != current {
			if bar != nil {
				_ = bar.Finish()
			}

			current = filename
			bar = progressbar.DefaultBytes(total, filename)
		}

		_ = bar.Set64(downloaded)
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)

	reader := bufio.NewReader(os.Stdin)

	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(input), "y")
}

func dirNonEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)

	return err == nil && len(entries) > 0
}

func printResultHints(outputDir string, downloaded []nsg.DownloadedFile) {
	byName := make(map[string]bool, len(downloaded))
	for _, file := range downloaded {
		byName[file.Filename] = true
	}

	if byName[nsg.OutputFileName] {
		fmt.Printf("%s Job output found!\n", green("✓"))
		fmt.Println()
		fmt.Println("View results:")
		fmt.Printf("  cat %s | jq .\n", filepath.Join(outputDir, nsg.OutputFileName))
	}

	if byName["stderr.txt"] {
		fmt.Println()
		fmt.Printf("%s stderr.txt exists - check for errors:\n", yellow("⚠"))
		fmt.Printf("  cat %s\n", filepath.Join(outputDir, "stderr.txt"))
	}

	if byName["stdout.txt"] {
		fmt.Println()
		fmt.Println("stdout.txt exists:")
		fmt.Printf("  cat %s\n", filepath.Join(outputDir, "stdout.txt"))
	}

	fmt.Println()
}
