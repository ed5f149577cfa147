package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent clickweb configuration stored as config.toml
// in the .clickweb/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Client  ClientConfig `toml:"client"`
	Output  OutputConfig `toml:"output"`
	Log     LogConfig    `toml:"log"`
}

// ClientConfig holds settings for reaching the click-web server.
// Target is a full URL (scheme + host + port) of the application root.
type ClientConfig struct {
	Target    string `toml:"target,omitempty"`
	Timeout   string `toml:"timeout,omitempty"`
	ChunkSize uint   `toml:"chunk_size,omitempty"`
	Buffered  bool   `toml:"buffered,omitempty"`
}

// OutputConfig controls where streamed command output is rendered.
type OutputConfig struct {
	Format   string `toml:"format,omitempty"`
	HTMLPath string `toml:"html_path,omitempty"`
	Plain    bool   `toml:"plain,omitempty"`
}

// LogConfig holds logging settings for the CLI.
type LogConfig struct {
	File string `toml:"file,omitempty"`
}

// MaxChunkSize is the largest accepted client.chunk_size. The reader
// allocates buffers proportional to it.
const MaxChunkSize = 16 << 20

// Output formats accepted by output.format.
const (
	FormatTerminal = "terminal"
	FormatHTML     = "html"
	FormatTUI      = "tui"
)

// ValidFormats returns the accepted output.format values.
func ValidFormats() []string {
	return []string{FormatTerminal, FormatHTML, FormatTUI}
}

// ValidateFormat returns an error when format is not one of ValidFormats.
func ValidateFormat(format string) error {
	for _, f := range ValidFormats() {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q (available: %s)", format, strings.Join(ValidFormats(), ", "))
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.target": {
		get: func(c *Config) string { return c.Client.Target },
		set: func(c *Config, v string) error { c.Client.Target = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for client.timeout: %w", err)
			}
			c.Client.Timeout = v
			return nil
		},
	},
	"client.chunk_size": {
		get: func(c *Config) string {
			if c.Client.ChunkSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Client.ChunkSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for client.chunk_size: %w", err)
			}
			if n > MaxChunkSize {
				return fmt.Errorf("invalid value for client.chunk_size: %d is larger than %d", n, MaxChunkSize)
			}
			c.Client.ChunkSize = uint(n)
			return nil
		},
	},
	"client.buffered": {
		get: func(c *Config) string { return strconv.FormatBool(c.Client.Buffered) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.buffered: %w", err)
			}
			c.Client.Buffered = b
			return nil
		},
	},
	"output.format": {
		get: func(c *Config) string { return c.Output.Format },
		set: func(c *Config, v string) error {
			if err := ValidateFormat(v); err != nil {
				return err
			}
			c.Output.Format = v
			return nil
		},
	},
	"output.html_path": {
		get: func(c *Config) string { return c.Output.HTMLPath },
		set: func(c *Config, v string) error { c.Output.HTMLPath = v; return nil },
	},
	"output.plain": {
		get: func(c *Config) string { return strconv.FormatBool(c.Output.Plain) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for output.plain: %w", err)
			}
			c.Output.Plain = b
			return nil
		},
	},
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
}
