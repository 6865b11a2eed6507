package store

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config locates the journal and tunes the list that shows it.
type Config interface {
	BasePath() string
	FlashDuration() time.Duration
	SingleFlight() bool
}

// LoadConfig reads .declist from $DECLIST_CONFIG_PATH or the working
// directory. DECLIST_* environment variables override the file.
func LoadConfig() (Config, error) {
	viper.SetDefault("path", "~/.declist.db")
	viper.SetDefault("flash", "600ms")
	viper.SetDefault("singleflight", false)
	viper.SetConfigName(".declist") // .yaml is implicit
	viper.SetEnvPrefix("DECLIST")
	viper.AutomaticEnv()

	if override := os.Getenv("DECLIST_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}

	viper.AddConfigPath("./")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(viper.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}

	return &fileConfig{
		Path:   path,
		Flash:  viper.GetDuration("flash"),
		Single: viper.GetBool("singleflight"),
	}, nil
}

// StaticConfig is a Config with fixed values.
func StaticConfig(path string) Config {
	return &fileConfig{Path: path}
}

type fileConfig struct {
	Path   string        `json:"path"`
	Flash  time.Duration `json:"flash"`
	Single bool          `json:"singleflight"`
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

func (f *fileConfig) FlashDuration() time.Duration {
	return f.Flash
}

func (f *fileConfig) SingleFlight() bool {
	return f.Single
}
