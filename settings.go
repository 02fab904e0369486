package nsg

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings are optional user defaults read from ~/.nsg/config.yaml and
// NSG_* environment variables. Every field has a working default, so a
// missing config file is not an error.
type Settings struct {
	URL     string        `mapstructure:"url"`
	Tool    string        `mapstructure:"tool"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultTool is the NSG tool used when neither config nor flags name one.
const DefaultTool = "PY_EXPANSE"

// LoadSettings reads user defaults, falling back to built-in values.
func LoadSettings() (Settings, error) {
	dir, err := configDir()
	if err != nil {
		return Settings{}, err
	}

	return loadSettingsFrom(dir)
}

func loadSettingsFrom(dir string) (Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("NSG")
	v.AutomaticEnv()

	v.SetDefault("url", DefaultBaseURL)
	v.SetDefault("tool", DefaultTool)
	v.SetDefault("timeout", requestTimeout)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("parse config: %w", err)
	}

	return s, nil
}
