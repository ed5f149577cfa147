package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Settings is the resolved configuration of a single command invocation,
// after flags, environment and config file have been merged by viper.
type Settings struct {
	Target    string
	Timeout   time.Duration
	ChunkSize int
	Buffered  bool
	Format    string
	HTMLPath  string
	Plain     bool
	LogFile   string
}

// SettingsFromViper reads Settings from v and validates them.
func SettingsFromViper(v *viper.Viper) (Settings, error) {
	timeout, err := time.ParseDuration(v.GetString("client.timeout"))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid client.timeout: %w", err)
	}

	chunkSize, err := cast.ToInt64E(v.Get("client.chunk_size"))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid client.chunk_size: %w", err)
	}
	if chunkSize < 0 || chunkSize > MaxChunkSize {
		return Settings{}, fmt.Errorf("invalid client.chunk_size: %d is outside 0..%d", chunkSize, MaxChunkSize)
	}

	s := Settings{
		Target:    v.GetString("client.target"),
		Timeout:   timeout,
		ChunkSize: int(chunkSize),
		Buffered:  v.GetBool("client.buffered"),
		Format:    v.GetString("output.format"),
		HTMLPath:  v.GetString("output.html_path"),
		Plain:     v.GetBool("output.plain"),
		LogFile:   v.GetString("log.file"),
	}

	if s.Target == "" {
		return Settings{}, errors.New("client.target is not set")
	}
	if err := ValidateFormat(s.Format); err != nil {
		return Settings{}, err
	}
	return s, nil
}
