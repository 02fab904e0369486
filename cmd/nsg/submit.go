package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdraeger/nsg-cli"
)

func newSubmitCmd(global *globalOptions) *cobra.Command {
	var tool string

	cmd := &cobra.Command{
		Use:   "submit <zip_file>",
		Short: "Submit a new job to NSG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zipPath := args[0]

			info, err := os.Stat(zipPath)
			if err != nil {
				return fmt.Errorf("ZIP file not found: %s", zipPath)
			}

			if !strings.HasSuffix(zipPath, ".zip") {
				fmt.Fprintf(os.Stderr, "%s File does not have .zip extension\n", yellow("⚠"))
				fmt.Fprintln(os.Stderr, "   Continuing anyway...")
				fmt.Fprintln(os.Stderr)
			}

			client, creds, err := newClient(global)
			if err != nil {
				return err
			}

			if tool == "" {
				settings, err := nsg.LoadSettings()
				if err != nil {
					return err
				}

				tool = settings.Tool
			}

			fmt.Println(boldCyan("NSG Job Submission"))
			fmt.Println(cyan(rule(80, "=")))
			fmt.Println()
			fmt.Printf("Tool:     %s\n", bold(tool))
			fmt.Printf("User:     %s\n", cyan(creds.Username))
			fmt.Printf("File:     %s\n", cyan(zipPath))
			fmt.Printf("Size:     %s\n", formatSize(info.Size()))
			fmt.Println()

			fmt.Printf("%s Submitting job to NSG...\n", yellow("→"))

			status, err := client.SubmitJob(cmd.Context(), zipPath, tool)
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(green(rule(80, "=")))
			fmt.Printf("%s Job submitted successfully!\n", boldGreen("✓"))
			fmt.Println(green(rule(80, "=")))
			fmt.Println()
			fmt.Printf("Job ID:   %s\n", boldCyan(status.JobID))
			fmt.Printf("Stage:    %s\n", bold(status.Stage))
			fmt.Printf("URL:      %s\n", dim(status.SelfURI))

			if status.DateSubmitted != "" {
				fmt.Printf("Submitted: %s\n", status.DateSubmitted)
			}

			fmt.Println()
			fmt.Println(bold("Next Steps:"))
			fmt.Println("  1. Check job status:")
			fmt.Printf("     %s\n", cyan("nsg status "+status.JobID))
			fmt.Println()
			fmt.Println("  2. When completed, download results:")
			fmt.Printf("     %s\n", cyan("nsg download "+status.JobID))
			fmt.Println()
			fmt.Println("  3. View all jobs:")
			fmt.Printf("     %s\n", cyan("nsg list"))
			fmt.Println()
			fmt.Println(bold("NSG Portal:"))
			fmt.Printf("  %s\n", cyan("https://www.nsgportal.org/"))
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVarP(&tool, "tool", "t", "", "NSG tool to use (default from config, else "+nsg.DefaultTool+")")

	return cmd
}
