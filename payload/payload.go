// Package payload implements the example NSG test job: the opaque payload a
// gateway job executes in its working directory. It prints environment
// diagnostics, loads optional parameters, simulates a few steps of work and
// leaves a JSON result file behind for the gateway to collect.
package payload

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sdraeger/nsg-cli"
)

const (
	// Steps is the number of simulated work steps.
	Steps = 5
	// DefaultStepPause is the pause between simulated steps.
	DefaultStepPause = time.Second
	// StatusCompleted is the status recorded on the success path.
	StatusCompleted = "completed"

	outputFilePerm = 0o644
	banner         = 80
)

// Params is the optional job configuration, echoed back verbatim in the
// result. No schema is enforced.
type Params map[string]any

// Result is the record written to the output file when the job finishes.
type Result struct {
	Status     string        `json:"status"`
	Timestamp  string        `json:"timestamp"`
	Platform   string        `json:"platform"`
	GoVersion  string        `json:"go_version"`
	Parameters Params        `json:"parameters"`
	Results    ResultDetails `json:"results"`
}

// ResultDetails is the nested payload of a Result.
type ResultDetails struct {
	Message        string `json:"message"`
	StepsCompleted int    `json:"steps_completed"`
}

func platformString() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

func rule(out io.Writer, ch string) {
	fmt.Fprintln(out, strings.Repeat(ch, banner))
}

// PrintDiagnostics emits runtime and host information to out.
func PrintDiagnostics(out io.Writer) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	rule(out, "=")
	fmt.Fprintln(out, "NSG Test Job - Example Go Program")
	rule(out, "=")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "Platform: %s\n", platformString())
	fmt.Fprintf(out, "Architecture: %s\n", runtime.GOARCH)
	fmt.Fprintf(out, "Hostname: %s\n", hostname)
	fmt.Fprintf(out, "Current time: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(out)
}

// LoadParams reads params.json from dir. A missing file yields empty params;
// an unreadable or malformed file is reported to out and also yields empty
// params. LoadParams never fails the job.
func LoadParams(dir string, out io.Writer) Params {
	data, err := os.ReadFile(filepath.Join(dir, nsg.ParamsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "No params.json found - using defaults")
			return Params{}
		}

		fmt.Fprintf(out, "Error loading params.json: %v\n", err)

		return Params{}
	}

	var params Params
	if err := json.Unmarshal(data, &params); err != nil {
		fmt.Fprintf(out, "Error loading params.json: %v\n", err)
		return Params{}
	}

	if params == nil {
		params = Params{}
	}

	fmt.Fprintln(out, "Parameters loaded from params.json:")

	if pretty, err := json.MarshalIndent(params, "", "  "); err == nil {
		fmt.Fprintln(out, string(pretty))
	}

	return params
}

// Simulate performs the fixed number of work steps, pausing between each.
func Simulate(out io.Writer, pause time.Duration) {
	fmt.Fprintln(out)
	rule(out, "-")
	fmt.Fprintln(out, "Job Processing")
	rule(out, "-")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Processing data...")

	for i := 0; i < Steps; i++ {
		fmt.Fprintf(out, "  Step %d/%d...\n", i+1, Steps)
		time.Sleep(pause)
	}
}

// BuildResult assembles the result record for the given parameters.
func BuildResult(params Params) Result {
	if params == nil {
		params = Params{}
	}

	return Result{
		Status:     StatusCompleted,
		Timestamp:  time.Now().Format(time.RFC3339),
		Platform:   platformString(),
		GoVersion:  runtime.Version(),
		Parameters: params,
		Results: ResultDetails{
			Message:        "Test job completed successfully",
			StepsCompleted: Steps,
		},
	}
}

// WriteResult persists the result record to test_output.json in dir,
// overwriting any existing file.
func WriteResult(dir string, result Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	path := filepath.Join(dir, nsg.OutputFileName)
	if err := os.WriteFile(path, data, outputFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// Run executes the whole job in dir: diagnostics, parameter load, simulated
// work, result write. Only a result-write failure is an error.
func Run(dir string, out io.Writer, pause time.Duration) error {
	PrintDiagnostics(out)

	params := LoadParams(dir, out)

	Simulate(out, pause)

	if err := WriteResult(dir, BuildResult(params)); err != nil {
		return err
	}

	fmt.Fprintln(out)
	rule(out, "=")
	fmt.Fprintln(out, "Job Completed Successfully!")
	rule(out, "=")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Output written to: %s\n", nsg.OutputFileName)
	fmt.Fprintln(out)

	return nil
}
