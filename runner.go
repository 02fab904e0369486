package nsg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"github.com/xeipuuv/gojsonschema"
)

const paramsFilePerm = 0o644

// LocalJob describes a payload run in a local directory, mirroring how the
// gateway executes a submitted job: params.json in, test_output.json out.
type LocalJob struct {
	Dir          string
	Params       any
	ParamsSchema string
	OutputSchema string
}

// Runner executes a job payload in a local run directory.
type Runner interface {
	Run(ctx context.Context, job LocalJob, opts ...RunOption) (outBytes, errBytes []byte, exitCode int, err error)
}

// ExecRunner runs a payload command as a subprocess, optionally under a
// pseudo-terminal.
type ExecRunner struct {
	cmd    []string
	useTTY bool
}

// NewRunner constructs a runner for the given payload command.
func NewRunner(cmd []string, useTTY bool) (*ExecRunner, error) {
	if len(cmd) == 0 {
		return nil, fmt.Errorf("payload requires cmd")
	}

	return &ExecRunner{cmd: cmd, useTTY: useTTY}, nil
}

// Run executes the payload and verifies the run-directory contract: the
// directory must exist up front and the result file must exist afterwards.
func (r *ExecRunner) Run(ctx context.Context, job LocalJob, opts ...RunOption) ([]byte, []byte, int, error) {
	if len(opts) == 0 {
		opts = append(opts, WithTTY(r.useTTY))
	} else {
		opts = append([]RunOption{WithTTY(r.useTTY)}, opts...)
	}

	if err := writeParams(job); err != nil {
		return nil, nil, 0, fmt.Errorf("write params: %w", err)
	}

	runOpts := resolveRunOptions(opts)

	outBytes, errBytes, exitCode, runErr := r.runWithOptions(ctx, job.Dir, runOpts)
	if runErr != nil {
		if exitCode != 0 {
			runErr = fmt.Errorf("exit code %d: %w", exitCode, errors.Join(ErrRunFailed, runErr))
		}

		return outBytes, errBytes, exitCode, runErr
	}

	outputPath := filepath.Join(job.Dir, OutputFileName)
	if _, err := os.Stat(outputPath); err != nil {
		return outBytes, errBytes, exitCode, fmt.Errorf("%w: %s: %v", ErrMissingOutput, outputPath, err)
	}

	if err := validateOutputSchema(job.OutputSchema, outputPath); err != nil {
		return outBytes, errBytes, exitCode, fmt.Errorf("validate output: %w", err)
	}

	return outBytes, errBytes, exitCode, nil
}

func (r *ExecRunner) runWithOptions(ctx context.Context, dir string, runOpts RunOptions) ([]byte, []byte, int, error) {
	if runOpts.tty {
		return runCommandWithTTY(ctx, r.cmd, dir, runOpts.stdout)
	}

	return runCommand(ctx, r.cmd, dir, runOpts.stdout, runOpts.stderr)
}

// writeParams materializes params.json in the run dir. A nil Params leaves
// any pre-existing file in place; the payload treats absence as empty params.
func writeParams(job LocalJob) error {
	if _, err := os.Stat(job.Dir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingJobDir, job.Dir, err)
	}

	paramsPath := filepath.Join(job.Dir, ParamsFileName)

	if job.Params == nil {
		data, err := os.ReadFile(paramsPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}

			return fmt.Errorf("read %s: %w", paramsPath, err)
		}

		return validateParamsSchema(job.ParamsSchema, data)
	}

	data, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	if err := validateParamsSchema(job.ParamsSchema, data); err != nil {
		return err
	}

	if err := os.WriteFile(paramsPath, data, paramsFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", paramsPath, err)
	}

	return nil
}

// validateParamsSchema checks params against an optional schema. NSG params
// carry no fixed schema, so an empty schema skips validation.
func validateParamsSchema(schema string, data []byte) error {
	if strings.TrimSpace(schema) == "" {
		return nil
	}

	return validateSchema(schema, data, ErrParamsSchemaInvalid)
}

func validateOutputSchema(schema, outputPath string) error {
	if strings.TrimSpace(schema) == "" {
		return nil
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", outputPath, err)
	}

	return validateSchema(schema, data, ErrOutputSchemaInvalid)
}

func validateSchema(schema string, data []byte, invalidErr error) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, err := range result.Errors() {
		errs = append(errs, err.String())
	}

	return fmt.Errorf("%w: %s", invalidErr, strings.Join(errs, "; "))
}

func runCommand(ctx context.Context, argv []string, workDir string, stdoutSink, stderrSink io.Writer) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workDir

	var (
		stdout bytes.Buffer
		stderr bytes.Buffer
	)

	if stdoutSink != nil {
		cmd.Stdout = io.MultiWriter(&stdout, stdoutSink)
	} else {
		cmd.Stdout = &stdout
	}

	if stderrSink != nil {
		cmd.Stderr = io.MultiWriter(&stderr, stderrSink)
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), err
		}

		return stdout.Bytes(), stderr.Bytes(), 0, fmt.Errorf("cmd run: %w", err)
	}

	return stdout.Bytes(), stderr.Bytes(), 0, nil
}

func runCommandWithTTY(ctx context.Context, argv []string, workDir string, stdoutSink io.Writer) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workDir

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("start pty: %w", err)
	}

	var out bytes.Buffer

	var outWriter io.Writer = &out
	if stdoutSink != nil {
		outWriter = io.MultiWriter(&out, stdoutSink)
	}

	done := make(chan error, 1)

	go func() {
		_, err := io.Copy(outWriter, ptmx)
		done <- err
	}()

	err = cmd.Wait()
	_ = ptmx.Close()

	<-done

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.Bytes(), nil, exitErr.ExitCode(), err
		}

		return out.Bytes(), nil, 0, fmt.Errorf("cmd wait: %w", err)
	}

	return out.Bytes(), nil, 0, nil
}
