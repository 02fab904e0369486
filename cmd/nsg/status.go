package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job>",
		Short: "Check the status of a specific job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(global)
			if err != nil {
				return err
			}

			job := args[0]

			fmt.Println(boldCyan("NSG Job Status"))
			fmt.Println(cyan(rule(80, "=")))
			fmt.Println()
			fmt.Printf("%s Checking job status...\n", cyan("→"))
			fmt.Printf("   Job: %s\n", bold(job))
			fmt.Println()

			status, err := client.GetJobStatus(cmd.Context(), job)
			if err != nil {
				return err
			}

			fmt.Printf("%s Job found\n", boldGreen("✓"))
			fmt.Println()
			fmt.Println(bold("Job Status Information"))
			fmt.Println(rule(80, "="))
			fmt.Println()
			fmt.Printf("Job ID:       %s\n", cyan(status.JobID))
			fmt.Printf("Stage:        %s %s\n", stageIcon(status.Stage), bold(status.Stage))

			if status.Failed {
				fmt.Printf("Failed:       %s YES\n", red("✗"))
			}

			if status.DateSubmitted != "" {
				fmt.Printf("Submitted:    %s\n", formatTimestamp(status.DateSubmitted))
			}

			if status.ResultsURI != "" {
				fmt.Printf("Results:      %s Available\n", green("✓"))
			} else {
				fmt.Printf("Results:      %s Not yet available\n", yellow("⏳"))
			}

			if len(status.Messages) > 0 {
				fmt.Println()
				fmt.Println(bold("Recent Messages:"))

				recent := status.Messages
				if len(recent) > 5 {
					recent = recent[len(recent)-5:]
				}

				for _, msg := range recent {
					fmt.Println()
					fmt.Printf("  [%s] %s\n", cyan(msg.Stage), msg.Timestamp)

					if msg.Text != "" {
						fmt.Printf("    %s\n", truncate(msg.Text, 200))
					}
				}
			}

			fmt.Println()
			fmt.Println(rule(80, "="))
			fmt.Println()

			printNextAction(status.Stage, job)

			return nil
		},
	}
}

func printNextAction(stage, jobID string) {
	switch stage {
	case "COMPLETED":
		fmt.Printf("%s Job completed! You can now download results.\n", boldGreen("✓"))
		fmt.Println()
		fmt.Println("To download all results:")
		fmt.Printf("  %s\n", cyan("nsg download "+jobID))
	case "FAILED":
		fmt.Printf("%s Job failed. Check messages above for error details.\n", red("✗"))
	case "QUEUE", "SUBMITTED":
		fmt.Printf("%s Job is queued. Check again later.\n", yellow("⏳"))
		fmt.Println()
		fmt.Println("To check status again:")
		fmt.Printf("  %s\n", cyan("nsg status "+jobID))
	case "RUN", "RUNNING":
		fmt.Printf("%s Job is running. Check back later for completion.\n", yellow("⟳"))
		fmt.Println()
		fmt.Println("To check status again:")
		fmt.Printf("  %s\n", cyan("nsg status "+jobID))
	default:
		fmt.Printf("%s Unknown job stage: %s\n", yellow("?"), stage)
	}

	fmt.Println()
}
