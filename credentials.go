package nsg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const credentialsFilePerm = 0o600

// Credentials holds the NSG account identity and application key.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	AppKey   string `json:"app_key"`
}

// LoadCredentials reads the stored credentials from the user config dir.
func LoadCredentials() (Credentials, error) {
	path, err := CredentialsPath()
	if err != nil {
		return Credentials{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, fmt.Errorf("%w: run 'nsg login' first (expected %s)", ErrNoCredentials, path)
		}

		return Credentials{}, fmt.Errorf("read credentials %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials %s: %w", path, err)
	}

	return creds, nil
}

// Save writes the credentials with owner-only permissions.
func (c Credentials) Save() error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, CredentialsFileName)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.WriteFile(path, data, credentialsFilePerm); err != nil {
		return fmt.Errorf("write credentials %s: %w", path, err)
	}

	// WriteFile does not tighten the mode of a pre-existing file.
	if err := os.Chmod(path, credentialsFilePerm); err != nil {
		return fmt.Errorf("chmod credentials %s: %w", path, err)
	}

	return nil
}

// CredentialsPath returns the location of the stored credentials file.
func CredentialsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, CredentialsFileName), nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home dir: %w", err)
	}

	return filepath.Join(home, ConfigDirName), nil
}
