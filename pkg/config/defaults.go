package config

const (
	defaultClientTarget  = "http://localhost:5000"
	defaultClientTimeout = "5m"
	defaultChunkSize     = 32 * 1024

	defaultOutputFormat   = FormatTerminal
	defaultOutputHTMLPath = "clickweb-output.html"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			Target:    defaultClientTarget,
			Timeout:   defaultClientTimeout,
			ChunkSize: defaultChunkSize,
		},
		Output: OutputConfig{
			Format:   defaultOutputFormat,
			HTMLPath: defaultOutputHTMLPath,
		},
	}
}
