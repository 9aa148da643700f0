package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Path = strings.TrimSpace(c.FFmpeg.Path)
	if c.FFmpeg.Path == "" {
		if value, ok := os.LookupEnv("FRAMESTASH_FFMPEG"); ok {
			c.FFmpeg.Path = strings.TrimSpace(value)
		}
	}
	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = defaultFFmpegPath
	}
	c.FFmpeg.EncodeFormat = strings.TrimPrefix(strings.TrimSpace(c.FFmpeg.EncodeFormat), ".")
	c.FFmpeg.DecodeFormat = strings.TrimPrefix(strings.TrimSpace(c.FFmpeg.DecodeFormat), ".")
	c.FFmpeg.EncodingLibrary = strings.TrimSpace(c.FFmpeg.EncodingLibrary)
	c.FFmpeg.LogLevel = strings.ToLower(strings.TrimSpace(c.FFmpeg.LogLevel))
	if c.FFmpeg.LogLevel == "" {
		c.FFmpeg.LogLevel = defaultFFmpegLogLevel
	}
	c.FFmpeg.CustomEncodingTemplate = strings.TrimSpace(c.FFmpeg.CustomEncodingTemplate)
	c.FFmpeg.CustomDecodingTemplate = strings.TrimSpace(c.FFmpeg.CustomDecodingTemplate)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
