package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(global *globalOptions) *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all jobs for the authenticated user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, creds, err := newClient(global)
			if err != nil {
				return err
			}

			fmt.Println(boldCyan("NSG Job List"))
			fmt.Println(cyan(rule(80, "=")))
			fmt.Println()
			fmt.Printf("%s Fetching jobs for user: %s\n", cyan("→"), bold(creds.Username))
			fmt.Println()

			jobs, err := client.ListJobs(cmd.Context())
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				fmt.Println(yellow("No jobs found"))
				fmt.Println()
				fmt.Println("You can submit a test job with:")
				fmt.Printf("  %s\n", cyan("nsg submit <zip_file> --tool PY_EXPANSE"))

				return nil
			}

			fmt.Printf("Found %s job(s)\n", bold(len(jobs)))
			fmt.Println()
			fmt.Println(rule(80, "="))

			for i, job := range jobs {
				fmt.Println()
				fmt.Printf("Job #%s\n", bold(i+1))
				fmt.Printf("  ID:  %s\n", cyan(job.JobID))

				if detailed {
					fmt.Printf("  %s\n", dim("Fetching details..."))

					status, err := client.GetJobStatus(cmd.Context(), job.URL)
					if err != nil {
						fmt.Printf("  Status: %s (failed to fetch)\n", yellow("?"))
					} else {
						fmt.Printf("  Status: %s %s\n", stageIcon(status.Stage), bold(status.Stage))

						if status.Failed {
							fmt.Printf("  Failed: %s YES\n", red("✗"))
						}

						if status.DateSubmitted != "" {
							fmt.Printf("  Submitted: %s\n", formatTimestamp(status.DateSubmitted))
						}

						if len(status.Messages) > 0 {
							latest := status.Messages[len(status.Messages)-1]
							fmt.Printf("  Latest: [%s] %s\n", latest.Stage, truncate(latest.Text, 100))
						}
					}
				} else {
					fmt.Printf("  Status: %s\n", dim("? (use --detailed for full status)"))
				}

				fmt.Printf("  URL: %s\n", dim(job.URL))
				fmt.Println(rule(80, "="))
			}

			fmt.Println()
			fmt.Println(bold("Commands:"))
			fmt.Printf("  Check job status:    %s\n", cyan("nsg status <JOB_ID>"))
			fmt.Printf("  Download results:    %s\n", cyan("nsg download <JOB_ID>"))
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "fetch detailed status for each job (slower)")

	return cmd
}
