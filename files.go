package nsg

const (
	// ParamsFileName is the name of the optional job parameters file.
	ParamsFileName = "params.json"
	// OutputFileName is the name of the result file a completed job leaves behind.
	OutputFileName = "test_output.json"
	// CredentialsFileName is the name of the stored credentials file.
	CredentialsFileName = "credentials.json"
	// ConfigDirName is the per-user configuration directory under $HOME.
	ConfigDirName = ".nsg"
)
