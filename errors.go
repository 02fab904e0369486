package nsg

import "errors"

var (
	// ErrNoCredentials indicates no stored credentials were found.
	ErrNoCredentials = errors.New("no credentials found")
	// ErrMissingJobDir indicates the local run directory does not exist.
	ErrMissingJobDir = errors.New("job dir missing")
	// ErrRunFailed indicates the payload exited with a non-zero code.
	ErrRunFailed = errors.New("payload run failed")
	// ErrMissingOutput indicates the payload finished without writing its result file.
	ErrMissingOutput = errors.New("output file missing")
	// ErrParamsSchemaInvalid indicates params.json does not satisfy the given schema.
	ErrParamsSchemaInvalid = errors.New("params do not match schema")
	// ErrOutputSchemaInvalid indicates the result file does not satisfy the given schema.
	ErrOutputSchemaInvalid = errors.New("output does not match schema")
	// ErrNoResults indicates the remote job has not published a results URI yet.
	ErrNoResults = errors.New("job has no results yet")
)
