package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"dfcode.dev/internal/codeclient"
	"dfcode.dev/internal/recode"
)

// Config is the dfcode client configuration (dfcode.yaml).
type Config struct {
	CompanionURL     string `yaml:"companion_url"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	ScanTimeoutMs    int    `yaml:"scan_timeout_ms"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`

	Author     string `yaml:"author"`
	RecodeAddr string `yaml:"recode_addr"`

	LibraryPath   string `yaml:"library_path"`
	TranscriptDir string `yaml:"transcript_dir"`
}

func Default() Config {
	return Config{
		CompanionURL:     codeclient.DefaultURL,
		TimeoutMs:        int(codeclient.DefaultTimeout / time.Millisecond),
		ScanTimeoutMs:    30_000,
		RequestTimeoutMs: 60_000,
		Author:           "dfcode",
		RecodeAddr:       recode.DefaultAddr,
		LibraryPath:      "data/library.sqlite",
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set.
func Load(path string, optional bool) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, c.Validate()
}

// ApplyEnv overrides fields from DFCODE_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("DFCODE_COMPANION_URL", &c.CompanionURL)
	str("DFCODE_AUTHOR", &c.Author)
	str("DFCODE_RECODE_ADDR", &c.RecodeAddr)
	str("DFCODE_LIBRARY", &c.LibraryPath)
	str("DFCODE_TRANSCRIPT_DIR", &c.TranscriptDir)
	if err := num("DFCODE_TIMEOUT_MS", &c.TimeoutMs); err != nil {
		return err
	}
	if err := num("DFCODE_SCAN_TIMEOUT_MS", &c.ScanTimeoutMs); err != nil {
		return err
	}
	if err := num("DFCODE_REQUEST_TIMEOUT_MS", &c.RequestTimeoutMs); err != nil {
		return err
	}
	return c.Validate()
}

func (c Config) Validate() error {
	if c.CompanionURL == "" {
		return errors.New("companion_url is empty")
	}
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be > 0, got %d", c.TimeoutMs)
	}
	if c.ScanTimeoutMs < 0 || c.RequestTimeoutMs < 0 {
		return errors.New("scan_timeout_ms and request_timeout_ms must be >= 0")
	}
	return nil
}

func (c Config) Timeout() time.Duration { return ms(c.TimeoutMs) }

// ScanTimeout of zero waits until the command's context ends.
func (c Config) ScanTimeout() time.Duration { return ms(c.ScanTimeoutMs) }

func (c Config) RequestTimeout() time.Duration { return ms(c.RequestTimeoutMs) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
