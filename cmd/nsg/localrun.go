package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdraeger/nsg-cli"
)

type localRunOptions struct {
	jobDir           string
	params           string
	paramsSchemaFile string
	outputSchemaFile string
	useTTY           bool
	quiet            bool
	keep             bool
}

func newLocalRunCmd() *cobra.Command {
	opts := &localRunOptions{}

	cmd := &cobra.Command{
		Use:   "localrun <cmd> [args...]",
		Short: "Run a job payload locally the way NSG would, before submitting",
		Long: "Executes a payload command as an opaque subprocess in a run directory,\n" +
			"materializes params.json for it and verifies that it leaves " + nsg.OutputFileName + " behind.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.jobDir, "job-dir", "d", "", "run directory (default: a scratch dir under the system temp dir)")
	cmd.Flags().StringVar(&opts.params, "params", "", "inline JSON object written to "+nsg.ParamsFileName)
	cmd.Flags().StringVar(&opts.paramsSchemaFile, "params-schema-file", "", "JSON schema to validate params against")
	cmd.Flags().StringVar(&opts.outputSchemaFile, "output-schema-file", "", "JSON schema to validate the result file against")
	cmd.Flags().BoolVar(&opts.useTTY, "tty", false, "run the payload in a pseudo-terminal")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not mirror payload output")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "keep the scratch run directory")

	return cmd
}

func runLocal(cmd *cobra.Command, argv []string, opts *localRunOptions) error {
	jobDir := opts.jobDir
	if jobDir == "" {
		jobDir = filepath.Join(os.TempDir(), "nsg-localrun-"+uuid.NewString())
		if err := os.MkdirAll(jobDir, 0o755); err != nil {
			return fmt.Errorf("create scratch dir: %w", err)
		}

		if !opts.keep {
			defer os.RemoveAll(jobDir)
		}
	}

	job := nsg.LocalJob{Dir: jobDir}

	if opts.params != "" {
		var params map[string]any
		if err := json.Unmarshal([]byte(opts.params), &params); err != nil {
			return fmt.Errorf("parse --params: %w", err)
		}

		job.Params = params
	}

	var err error

	job.ParamsSchema, err = readSchemaFile(opts.paramsSchemaFile)
	if err != nil {
		return err
	}

	job.OutputSchema, err = readSchemaFile(opts.outputSchemaFile)
	if err != nil {
		return err
	}

	runner, err := nsg.NewRunner(argv, opts.useTTY)
	if err != nil {
		return err
	}

	fmt.Println(boldCyan("NSG Local Run"))
	fmt.Println(cyan(rule(80, "=")))
	fmt.Println()
	fmt.Printf("Payload:  %s\n", bold(argv[0]))
	fmt.Printf("Job dir:  %s\n", cyan(jobDir))
	fmt.Println()

	runOpts := []nsg.RunOption{}
	if !opts.quiet {
		runOpts = append(runOpts, nsg.WithStdout(os.Stdout), nsg.WithStderr(os.Stderr))
	}

	logger.Debug().Strs("argv", argv).Str("dir", jobDir).Msg("local run")

	_, errBytes, exitCode, err := runner.Run(cmd.Context(), job, runOpts...)
	if err != nil {
		if opts.quiet && len(errBytes) > 0 {
			_, _ = os.Stderr.Write(errBytes)
		}

		return fmt.Errorf("local run (exit code %d): %w", exitCode, err)
	}

	outputPath := filepath.Join(jobDir, nsg.OutputFileName)

	output, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("read result: %w", err)
	}

	fmt.Println()
	fmt.Println(green(rule(80, "=")))
	fmt.Printf("%s Payload completed and left %s behind\n", boldGreen("✓"), nsg.OutputFileName)
	fmt.Println(green(rule(80, "=")))
	fmt.Println()
	fmt.Println(string(output))

	if opts.keep || opts.jobDir != "" {
		fmt.Printf("Result file: %s\n", cyan(outputPath))
	}

	return nil
}

func readSchemaFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read schema file %s: %w", path, err)
	}

	return string(data), nil
}
