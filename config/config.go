package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config drives the swapvaultd daemon.
type Config struct {
	// ListenAddress is the HTTP bind address for the instruction API.
	ListenAddress string `toml:"ListenAddress"`
	// DataDir holds the LevelDB state database.
	DataDir string `toml:"DataDir"`
	// ProgramLabel fixes the escrow program namespace; changing it after
	// genesis orphans every derived address.
	ProgramLabel string `toml:"ProgramLabel"`
	// EnableFaucet exposes the dev-only mint/airdrop endpoints.
	EnableFaucet bool `toml:"EnableFaucet"`
	// LogFile, when set, mirrors logs to a rotated file.
	LogFile       string `toml:"LogFile"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB"`
	LogMaxAgeDays int    `toml:"LogMaxAgeDays"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ListenAddress: "127.0.0.1:8661",
		DataDir:       "./swapvault-data",
		ProgramLabel:  "swapvault",
		LogMaxSizeMB:  100,
		LogMaxAgeDays: 28,
	}
}

// Load reads the configuration from path, falling back to defaults when the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if strings.TrimSpace(c.ProgramLabel) == "" {
		return fmt.Errorf("config: ProgramLabel must not be empty")
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxAgeDays < 0 {
		return fmt.Errorf("config: log rotation limits must not be negative")
	}
	return nil
}
