package nsg

import "io"

// RunOptions defines the configuration for running a payload.
type RunOptions struct {
	stdout io.Writer
	stderr io.Writer
	tty    bool
}

// RunOption configures runtime behavior for one payload run.
type RunOption func(*RunOptions)

// WithTTY enables or disables pseudo-terminal execution.
func WithTTY(enabled bool) RunOption {
	return func(o *RunOptions) {
		o.tty = enabled
	}
}

// WithStdout mirrors payload stdout to the given writer.
func WithStdout(w io.Writer) RunOption {
	return func(o *RunOptions) {
		o.stdout = w
	}
}

// WithStderr mirrors payload stderr to the given writer.
func WithStderr(w io.Writer) RunOption {
	return func(o *RunOptions) {
		o.stderr = w
	}
}

func resolveRunOptions(opts []RunOption) RunOptions {
	out := RunOptions{
		stdout: io.Discard,
		stderr: io.Discard,
	}

	for _, opt := range opts {
		opt(&out)
	}

	return out
}
